package tuplecall

import (
	"reflect"

	"github.com/machinefabric/tuplecall-go/schema"
	"github.com/machinefabric/tuplecall-go/wire"
)

// Cardinality is the requested result count: one or many
type Cardinality uint8

const (
	Single Cardinality = iota
	List
)

// Representation is the requested result form: an opaque tuple or a typed
// domain entity.
type Representation uint8

const (
	RawTuple Representation = iota
	TypedObject
)

// ResultShape describes what the caller wants back from one invocation:
// cardinality and representation, parameterized by either a target type or
// a caller-supplied converter. A non-nil Converter is the entire chain.
type ResultShape struct {
	Cardinality    Cardinality
	Representation Representation
	Target         reflect.Type
	Converter      Converter
}

// tupleType is the registry target for raw tuple results
var tupleType = reflect.TypeOf((*Tuple)(nil)).Elem()

// composer builds the converter chain for one invocation. A composer is
// constructed fresh per call — target type, schema, and per-call converter
// additions all vary per call — and caches nothing.
type composer struct {
	registry  *Registry
	entities  *MappingContext
	validator *schema.Validator
}

// element builds the per-record converter for a shape: the caller's
// converter when supplied, otherwise registry lookup, then the tuple
// converter, then (for typed objects) the entity mapper. Schema-awareness
// lives entirely in the tuple step, so the entity mapper's contract is the
// same whether metadata was available or not.
func (cp *composer) element(shape ResultShape, space *schema.Space) Converter {
	if shape.Converter != nil {
		return shape.Converter
	}
	return func(v wire.Value) (any, error) {
		if cp.validator != nil && v.Shape() == wire.ShapeMap {
			if err := cp.validate(v, shape); err != nil {
				return nil, err
			}
		}
		if conv, ok := cp.registry.Resolve(v.Shape(), shape.Target); ok {
			return conv(v)
		}
		if shape.Representation == TypedObject && v.Shape() == wire.ShapeScalar {
			return cp.entities.mapValue(v, shape.Target)
		}
		tup, err := ToTuple(v, space)
		if err != nil {
			return nil, err
		}
		if shape.Representation == RawTuple {
			return tup, nil
		}
		return cp.entities.mapTuple(tup, shape.Target)
	}
}

// validate checks a map-shaped record against the space schema before any
// conversion runs (strict mode).
func (cp *composer) validate(v wire.Value, shape ResultShape) error {
	raw, err := v.ToGo()
	if err != nil {
		return &MappingError{WireShape: v.Shape(), Target: targetName(shape), Reason: "record is not representable", Err: err}
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return &MappingError{WireShape: v.Shape(), Target: targetName(shape), Reason: "record is not a document"}
	}
	if err := cp.validator.ValidateDocument(doc); err != nil {
		return &MappingError{WireShape: v.Shape(), Target: targetName(shape), Reason: "record violates space schema", Err: err}
	}
	return nil
}

// listChain converts a reply that is a list of records. A structurally
// unconvertible element aborts the whole list — no partial lists.
func (cp *composer) listChain(shape ResultShape, space *schema.Space) ConverterChain {
	elem := cp.element(shape, space)
	return func(v wire.Value) (any, error) {
		if v.IsNil() {
			return nil, nil
		}
		if v.Shape() != wire.ShapeArray {
			return nil, &MappingError{
				WireShape: v.Shape(),
				Target:    targetName(shape),
				Reason:    "reply is not a list of records",
			}
		}
		items := v.Items()
		out := make([]any, 0, len(items))
		for _, it := range items {
			conv, err := elem(it)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	}
}

// singleChain converts a reply carrying one value. The reply may be the
// record itself, a collection of records (first element wins), or a
// one-element scalar envelope; nil and empty replies converge on absence
// (a nil result from the chain).
func (cp *composer) singleChain(shape ResultShape, space *schema.Space) ConverterChain {
	elem := cp.element(shape, space)
	return func(v wire.Value) (any, error) {
		if v.IsNil() {
			return nil, nil
		}
		if v.Shape() == wire.ShapeArray {
			items := v.Items()
			switch {
			case len(items) == 0:
				return nil, nil
			case isRecordCollection(items):
				return elem(items[0])
			case len(items) == 1 && items[0].Shape() == wire.ShapeScalar:
				// single-value envelope around a scalar result
				return elem(items[0])
			}
		}
		return elem(v)
	}
}

// compose builds the chain for a shape. Exposed through the dispatcher;
// kept small so the decision table stays in one place.
func (cp *composer) compose(shape ResultShape, space *schema.Space) ConverterChain {
	if shape.Cardinality == List {
		return cp.listChain(shape, space)
	}
	return cp.singleChain(shape, space)
}

// isRecordCollection reports whether every element of a non-empty array is
// itself record-shaped (array or map). Such a reply is a collection of
// records rather than one positional record.
func isRecordCollection(items []wire.Value) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it.Shape() == wire.ShapeScalar {
			return false
		}
	}
	return true
}

// targetName renders a shape's target for error messages
func targetName(shape ResultShape) string {
	if shape.Converter != nil {
		return "custom converter result"
	}
	if shape.Representation == RawTuple {
		return "tuple"
	}
	return typeName(shape.Target)
}
