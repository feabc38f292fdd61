package tuplecall

import (
	"fmt"

	"github.com/machinefabric/tuplecall-go/schema"
	"github.com/machinefabric/tuplecall-go/wire"
)

// Tuple is one row-like result: an ordered sequence of wire values,
// optionally carrying field names. When names are present the name slice
// is exactly as long as the value slice; an empty string marks a position
// with no known name (schema drift on array-shaped records). Schema fields
// absent from a map-shaped record hold the wire missing marker, which is
// distinguishable from an explicit null.
type Tuple struct {
	values []wire.Value
	names  []string
	byName map[string]int
}

// NewTuple creates an unnamed, purely positional tuple
func NewTuple(values []wire.Value) *Tuple {
	cp := make([]wire.Value, len(values))
	copy(cp, values)
	return &Tuple{values: cp}
}

// NewNamedTuple creates a tuple with field names aligned to its values.
// Names must align one-to-one with values; non-empty names must be unique.
func NewNamedTuple(values []wire.Value, names []string) (*Tuple, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("tuplecall: %d field names do not align with %d values", len(names), len(values))
	}
	vals := make([]wire.Value, len(values))
	copy(vals, values)
	nms := make([]string, len(names))
	copy(nms, names)
	byName := make(map[string]int, len(names))
	for i, n := range nms {
		if n == "" {
			continue
		}
		if _, dup := byName[n]; dup {
			return nil, fmt.Errorf("tuplecall: duplicate field name %q", n)
		}
		byName[n] = i
	}
	return &Tuple{values: vals, names: nms, byName: byName}, nil
}

// Len returns the number of values in the tuple
func (t *Tuple) Len() int {
	return len(t.values)
}

// Named reports whether the tuple carries field names
func (t *Tuple) Named() bool {
	return t.names != nil
}

// Get returns the value at the given position
func (t *Tuple) Get(i int) (wire.Value, bool) {
	if i < 0 || i >= len(t.values) {
		return wire.Value{}, false
	}
	return t.values[i], true
}

// GetByName returns the value bound to the given field name. Unnamed
// tuples and unknown names report absence.
func (t *Tuple) GetByName(name string) (wire.Value, bool) {
	if name == "" {
		return wire.Value{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return wire.Value{}, false
	}
	return t.values[i], true
}

// Name returns the field name at the given position, empty when unknown
func (t *Tuple) Name(i int) string {
	if t.names == nil || i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Names returns a copy of the field names, nil for unnamed tuples
func (t *Tuple) Names() []string {
	if t.names == nil {
		return nil
	}
	cp := make([]string, len(t.names))
	copy(cp, t.names)
	return cp
}

// Values returns a copy of the tuple's values in positional order
func (t *Tuple) Values() []wire.Value {
	cp := make([]wire.Value, len(t.values))
	copy(cp, t.values)
	return cp
}

// ToTuple converts one wire-level record into a tuple. Array-shaped values
// become positional tuples; with schema metadata the leading positions get
// the schema's field names and trailing extras stay unnamed (drift is
// tolerated, not rejected). Map-shaped values are reordered to the
// schema's field order when metadata is present — declared fields absent
// from the record hold the missing marker — with unknown keys appended in
// encounter order; without metadata, insertion order is kept. Any other
// shape fails with a MappingError.
func ToTuple(v wire.Value, space *schema.Space) (*Tuple, error) {
	switch v.Shape() {
	case wire.ShapeArray:
		values := v.Items()
		if space == nil {
			return NewTuple(values), nil
		}
		names := make([]string, len(values))
		for i := range values {
			if f, ok := space.FieldByPosition(i); ok {
				names[i] = f.Name
			}
		}
		return NewNamedTuple(values, names)

	case wire.ShapeMap:
		if space == nil {
			keys := v.Keys()
			values := make([]wire.Value, len(keys))
			for i, k := range keys {
				values[i], _ = v.MapGet(k)
			}
			return NewNamedTuple(values, keys)
		}
		fields := space.Fields()
		values := make([]wire.Value, 0, v.Len())
		names := make([]string, 0, v.Len())
		declared := make(map[string]bool, len(fields))
		for _, f := range fields {
			declared[f.Name] = true
			if val, ok := v.MapGet(f.Name); ok {
				values = append(values, val)
			} else {
				values = append(values, wire.Missing())
			}
			names = append(names, f.Name)
		}
		for _, k := range v.Keys() {
			if declared[k] {
				continue
			}
			val, _ := v.MapGet(k)
			values = append(values, val)
			names = append(names, k)
		}
		return NewNamedTuple(values, names)

	default:
		return nil, &MappingError{
			WireShape: v.Shape(),
			Target:    "tuple",
			Reason:    fmt.Sprintf("%s values cannot form a tuple", v.Kind()),
		}
	}
}
