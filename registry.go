package tuplecall

import (
	"fmt"
	"reflect"

	"github.com/machinefabric/tuplecall-go/wire"
)

// Converter turns one wire value into a target value. Converters must be
// pure: converting the same value twice yields equal results.
type Converter func(v wire.Value) (any, error)

// registryKey is the exact-match lookup key: one wire shape, one target
// type. There is no inheritance-based matching — explicit registration
// only, so resolution stays deterministic and debuggable.
type registryKey struct {
	shape  wire.Shape
	target reflect.Type
}

// Registry maps (wire shape, target type) pairs to converters. A base
// registry is populated at configuration time before concurrent use
// begins; per-call additions go through With, which derives a new registry
// and leaves the base untouched, so concurrent calls never interfere.
type Registry struct {
	entries map[registryKey]Converter
}

// NewRegistry creates an empty converter registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]Converter)}
}

// Register binds a converter to the exact (shape, target) pair, shadowing
// any previous binding for that pair. Registration must not be interleaved
// with concurrent calls; use With for per-call additions.
func (r *Registry) Register(shape wire.Shape, target reflect.Type, conv Converter) error {
	if target == nil {
		return errInvalidArgument("converter target type must not be nil")
	}
	if conv == nil {
		return errInvalidArgument("converter must not be nil")
	}
	r.entries[registryKey{shape: shape, target: target}] = conv
	return nil
}

// Resolve returns the converter registered for the exact (shape, target)
// pair, reporting absence when nothing was registered.
func (r *Registry) Resolve(shape wire.Shape, target reflect.Type) (Converter, bool) {
	conv, ok := r.entries[registryKey{shape: shape, target: target}]
	return conv, ok
}

// With derives a new registry holding this registry's entries plus the
// given binding. The receiver is not modified.
func (r *Registry) With(shape wire.Shape, target reflect.Type, conv Converter) (*Registry, error) {
	derived := &Registry{entries: make(map[registryKey]Converter, len(r.entries)+1)}
	for k, v := range r.entries {
		derived.entries[k] = v
	}
	if err := derived.Register(shape, target, conv); err != nil {
		return nil, err
	}
	return derived, nil
}

// Len returns the number of registered converters
func (r *Registry) Len() int {
	return len(r.entries)
}

// RegisterConverter registers a typed converter for the exact (shape, T)
// pair on the given registry.
func RegisterConverter[T any](r *Registry, shape wire.Shape, conv func(v wire.Value) (T, error)) error {
	if conv == nil {
		return errInvalidArgument("converter must not be nil")
	}
	return r.Register(shape, reflect.TypeOf((*T)(nil)).Elem(), func(v wire.Value) (any, error) {
		out, err := conv(v)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// typeName renders a target type for error messages
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", t)
}
