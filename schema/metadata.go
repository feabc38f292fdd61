// Package schema describes the remote database's named collections
// ("spaces") and their field layout. The metadata is an immutable lookup:
// this package never refreshes or invalidates it, it only answers
// questions. Providers return absence, not errors, for unknown spaces.
package schema

import (
	"fmt"
	"sync"
)

// Field type names as reported by the remote schema
const (
	TypeAny      = "any"
	TypeUnsigned = "unsigned"
	TypeInteger  = "integer"
	TypeNumber   = "number"
	TypeString   = "string"
	TypeBoolean  = "boolean"
	TypeArray    = "array"
	TypeMap      = "map"
)

// Field is one column of a space: its name, zero-based position, and
// declared type.
type Field struct {
	Name     string
	Position int
	Type     string
}

// Space is the immutable metadata of one named collection
type Space struct {
	name   string
	fields []Field
	byName map[string]int
}

// NewSpace creates space metadata from an ordered field list. Field names
// must be non-empty and unique; positions are assigned from list order when
// left at zero.
func NewSpace(name string, fields []Field) (*Space, error) {
	if name == "" {
		return nil, fmt.Errorf("schema: space name must not be empty")
	}
	ordered := make([]Field, len(fields))
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema: space %q has a field with an empty name at position %d", name, i)
		}
		if _, dup := byName[f.Name]; dup {
			return nil, fmt.Errorf("schema: space %q declares field %q twice", name, f.Name)
		}
		f.Position = i
		if f.Type == "" {
			f.Type = TypeAny
		}
		ordered[i] = f
		byName[f.Name] = i
	}
	return &Space{name: name, fields: ordered, byName: byName}, nil
}

// Name returns the space name
func (s *Space) Name() string {
	return s.name
}

// Len returns the number of declared fields
func (s *Space) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the declared fields in positional order
func (s *Space) Fields() []Field {
	cp := make([]Field, len(s.fields))
	copy(cp, s.fields)
	return cp
}

// FieldByName looks a field up by name
func (s *Space) FieldByName(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// FieldByPosition looks a field up by zero-based position
func (s *Space) FieldByPosition(pos int) (Field, bool) {
	if pos < 0 || pos >= len(s.fields) {
		return Field{}, false
	}
	return s.fields[pos], true
}

// Provider resolves space metadata by name. Implementations must be
// synchronous and side-effect-free, and must report an unknown space as
// absent rather than as an error.
type Provider interface {
	SpaceByName(name string) (*Space, bool)
}

// StaticProvider is a map-backed Provider for configuration-time wiring
// and tests. Registration and lookup may be interleaved; the provider
// locks internally.
type StaticProvider struct {
	mu     sync.RWMutex
	spaces map[string]*Space
}

// NewStaticProvider creates a provider holding the given spaces
func NewStaticProvider(spaces ...*Space) *StaticProvider {
	byName := make(map[string]*Space, len(spaces))
	for _, s := range spaces {
		byName[s.Name()] = s
	}
	return &StaticProvider{spaces: byName}
}

// Add registers a space, replacing any previous one with the same name
func (p *StaticProvider) Add(space *Space) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spaces[space.Name()] = space
}

// SpaceByName implements Provider
func (p *StaticProvider) SpaceByName(name string) (*Space, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.spaces[name]
	return s, ok
}
