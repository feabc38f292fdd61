// Package tuplecall is the invocation-and-mapping layer of a client for a
// tuple-oriented database. Given a stored-procedure name, a parameter
// list, and the desired output shape — a raw tuple, a list of raw tuples,
// a typed object, or a list of typed objects, optionally schema-aware —
// it composes the matching converter chain, executes the call through an
// injected async transport, and blocks the caller until the result (or a
// precise error) is available.
//
// The wire transport, schema refresh policy, and connection management
// are external collaborators consumed through the Transport and
// schema.Provider interfaces.
package tuplecall

import (
	"github.com/machinefabric/tuplecall-go/schema"
	"github.com/machinefabric/tuplecall-go/wire"
)

// Wire value model re-exports
type WireValue = wire.Value
type WireShape = wire.Shape
type WireEntry = wire.Entry

// Schema metadata re-exports. The space type is aliased as SchemaSpace:
// the bare name belongs to the Space call option.
type SchemaSpace = schema.Space
type SchemaField = schema.Field
type SchemaProvider = schema.Provider

var NewSchemaSpace = schema.NewSpace
var NewStaticSchemaProvider = schema.NewStaticProvider
