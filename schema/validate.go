package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError reports a document that does not conform to a space's
// declared field types.
type ValidationError struct {
	Space   string
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: document does not match space %q: %s", e.Space, strings.Join(e.Details, "; "))
}

// Validator checks map-shaped documents against a JSON Schema derived from
// a space's declared field types. Fields typed "any" are accepted as-is;
// keys not declared by the space are allowed, mirroring the tolerance of
// the tuple converter for unknown wire fields.
type Validator struct {
	space  *Space
	schema *gojsonschema.Schema
}

// NewValidator compiles a validator for the given space
func NewValidator(space *Space) (*Validator, error) {
	if space == nil {
		return nil, fmt.Errorf("schema: validator needs a space")
	}
	properties := make(map[string]any, space.Len())
	for _, f := range space.Fields() {
		prop, ok := jsonSchemaType(f.Type)
		if !ok {
			continue // "any" and unknown declared types are unconstrained
		}
		properties[f.Name] = prop
	}
	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema: compiling validator for space %q: %w", space.Name(), err)
	}
	return &Validator{space: space, schema: compiled}, nil
}

// ValidateDocument checks one map-shaped document. A nil result means the
// document conforms; a non-conforming document yields a *ValidationError
// listing every violation.
func (v *Validator) ValidateDocument(doc map[string]any) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema: validating document against space %q: %w", v.space.Name(), err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ValidationError{Space: v.space.Name(), Details: details}
}

// jsonSchemaType maps a declared field type to its JSON Schema fragment
func jsonSchemaType(fieldType string) (map[string]any, bool) {
	switch fieldType {
	case TypeUnsigned:
		return map[string]any{"type": "integer", "minimum": 0}, true
	case TypeInteger:
		return map[string]any{"type": "integer"}, true
	case TypeNumber:
		return map[string]any{"type": "number"}, true
	case TypeString:
		return map[string]any{"type": "string"}, true
	case TypeBoolean:
		return map[string]any{"type": "boolean"}, true
	case TypeArray:
		return map[string]any{"type": "array"}, true
	case TypeMap:
		return map[string]any{"type": "object"}, true
	default:
		return nil, false
	}
}
