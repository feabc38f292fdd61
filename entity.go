package tuplecall

import (
	"reflect"
	"sync"

	"github.com/machinefabric/tuplecall-go/wire"
)

// EntityDef is the pre-registered construction recipe for one domain type:
// how to instantiate it and how each property binds to a wire field. Defs
// are built once through DefineEntity and reused for every call, replacing
// call-time reflection over the target type.
type EntityDef struct {
	target    reflect.Type
	construct func() any
	props     []property
}

// property binds one entity property to a wire field. assign applies the
// best-effort conversion; a value it cannot use leaves the property at its
// zero value.
type property struct {
	name   string
	field  string
	assign func(entity any, v wire.Value)
}

// Target returns the domain type this definition constructs
func (d *EntityDef) Target() reflect.Type {
	return d.target
}

// EntityBuilder declaratively assembles an EntityDef for T. Properties are
// declared in wire-field order; that order doubles as the positional
// fallback when a tuple carries no field names.
type EntityBuilder[T any] struct {
	props []property
}

// DefineEntity starts a builder for the domain type T
func DefineEntity[T any]() *EntityBuilder[T] {
	return &EntityBuilder[T]{}
}

// add registers a property with a raw wire-value assign function
func (b *EntityBuilder[T]) add(name, field string, assign func(e *T, v wire.Value)) *EntityBuilder[T] {
	b.props = append(b.props, property{
		name:  name,
		field: field,
		assign: func(entity any, v wire.Value) {
			assign(entity.(*T), v)
		},
	})
	return b
}

// skippable reports whether a resolved value should leave the property at
// its zero value: the missing marker and explicit nulls both do.
func skippable(v wire.Value) bool {
	return v.IsMissing() || v.IsNil()
}

// Int binds an integer property to the given wire field
func (b *EntityBuilder[T]) Int(name, field string, set func(e *T, n int64)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if n, err := v.CoerceInt64(); err == nil {
			set(e, n)
		}
	})
}

// Uint binds an unsigned integer property to the given wire field
func (b *EntityBuilder[T]) Uint(name, field string, set func(e *T, n uint64)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if n, err := v.CoerceUint64(); err == nil {
			set(e, n)
		}
	})
}

// Float binds a floating point property to the given wire field
func (b *EntityBuilder[T]) Float(name, field string, set func(e *T, f float64)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if f, err := v.CoerceFloat64(); err == nil {
			set(e, f)
		}
	})
}

// String binds a string property to the given wire field
func (b *EntityBuilder[T]) String(name, field string, set func(e *T, s string)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if s, err := v.CoerceString(); err == nil {
			set(e, s)
		}
	})
}

// Bool binds a boolean property to the given wire field
func (b *EntityBuilder[T]) Bool(name, field string, set func(e *T, ok bool)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if ok, err := v.CoerceBool(); err == nil {
			set(e, ok)
		}
	})
}

// Bytes binds a binary property to the given wire field
func (b *EntityBuilder[T]) Bytes(name, field string, set func(e *T, p []byte)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if skippable(v) {
			return
		}
		if p, err := v.CoerceBytes(); err == nil {
			set(e, p)
		}
	})
}

// Field binds a property to the raw wire value of the given field, for
// nested arrays, maps, and custom conversions. The missing marker is still
// filtered out; explicit nulls are passed through.
func (b *EntityBuilder[T]) Field(name, field string, set func(e *T, v wire.Value)) *EntityBuilder[T] {
	return b.add(name, field, func(e *T, v wire.Value) {
		if v.IsMissing() {
			return
		}
		set(e, v)
	})
}

// Build finalizes the definition
func (b *EntityBuilder[T]) Build() *EntityDef {
	props := make([]property, len(b.props))
	copy(props, b.props)
	return &EntityDef{
		target:    reflect.TypeOf((*T)(nil)).Elem(),
		construct: func() any { return new(T) },
		props:     props,
	}
}

// MappingContext holds the registered entity definitions. It is the
// mapping collaborator of the entity mapper: given a target type, it
// yields that type's constructible properties and their field bindings.
// Register at configuration time, before concurrent calls begin.
type MappingContext struct {
	mu   sync.RWMutex
	defs map[reflect.Type]*EntityDef
}

// NewMappingContext creates an empty mapping context
func NewMappingContext() *MappingContext {
	return &MappingContext{defs: make(map[reflect.Type]*EntityDef)}
}

// Register adds an entity definition, replacing any previous definition
// for the same target type.
func (c *MappingContext) Register(def *EntityDef) error {
	if def == nil {
		return errInvalidArgument("entity definition must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[def.target] = def
	return nil
}

// Definition returns the registered definition for the target type
func (c *MappingContext) Definition(target reflect.Type) (*EntityDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[target]
	return def, ok
}

// mapTuple converts a tuple into an instance of the target type. With a
// registered definition, each property resolves by field name when the
// tuple is named, else by declaration position; values that cannot be
// coerced leave the property at its zero value — entities may be partial.
// Without a definition the tuple converts structurally through the wire
// codec: named tuples as a map document, unnamed ones as an array. Only a
// target that cannot be constructed either way fails.
func (c *MappingContext) mapTuple(t *Tuple, target reflect.Type) (any, error) {
	if def, ok := c.Definition(target); ok {
		entity := def.construct()
		for i, p := range def.props {
			v, ok := resolveProperty(t, p.field, i)
			if !ok {
				continue
			}
			p.assign(entity, v)
		}
		return entity, nil
	}
	return structuralConvert(t, target)
}

// resolveProperty finds the wire value feeding one property: by field name
// on named tuples, by declaration position otherwise.
func resolveProperty(t *Tuple, field string, position int) (wire.Value, bool) {
	if t.Named() {
		return t.GetByName(field)
	}
	return t.Get(position)
}

// structuralConvert maps a tuple into the target type through the wire
// codec, with no per-type descriptor. Missing markers are dropped from the
// document first: absent data must not decode as null.
func structuralConvert(t *Tuple, target reflect.Type) (any, error) {
	var doc wire.Value
	if t.Named() {
		entries := make([]wire.Entry, 0, t.Len())
		names := t.Names()
		for i, v := range t.Values() {
			if v.IsMissing() || names[i] == "" {
				continue
			}
			entries = append(entries, wire.Entry{Key: names[i], Value: v})
		}
		doc = wire.NewMap(entries...)
	} else {
		values := t.Values()
		for i, v := range values {
			if v.IsMissing() {
				values[i] = wire.Nil()
			}
		}
		doc = wire.NewArray(values...)
	}

	out := reflect.New(target)
	if err := wire.DecodeInto(doc, out.Interface()); err != nil {
		return nil, &MappingError{
			WireShape: doc.Shape(),
			Target:    typeName(target),
			Reason:    "no entity definition registered and structural conversion failed",
			Err:       err,
		}
	}
	return out.Interface(), nil
}

// mapValue converts a raw wire value (not yet a tuple) into the target
// type structurally. Used for single-value replies that are plain scalars
// or documents.
func (c *MappingContext) mapValue(v wire.Value, target reflect.Type) (any, error) {
	out := reflect.New(target)
	if err := wire.DecodeInto(v, out.Interface()); err != nil {
		return nil, &MappingError{
			WireShape: v.Shape(),
			Target:    typeName(target),
			Reason:    "structural conversion failed",
			Err:       err,
		}
	}
	return out.Interface(), nil
}
