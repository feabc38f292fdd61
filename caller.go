package tuplecall

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/machinefabric/tuplecall-go/schema"
	"github.com/machinefabric/tuplecall-go/wire"
)

// Caller is the public surface of the invocation layer. It validates
// inputs, resolves schema metadata when a space name is given, composes
// the converter chain for the requested result shape, executes the remote
// call, and synchronously unwraps the resulting future.
//
// A Caller is safe for concurrent use: each call owns its FunctionCall,
// ResultShape, and converter chain, and the shared registry and mapping
// context are read-only once configuration is done.
type Caller struct {
	transport Transport
	schemas   schema.Provider
	entities  *MappingContext
	registry  *Registry
	exec      Executor
	log       *zap.Logger
}

// Option configures a Caller at construction time
type Option func(*Caller)

// WithSchemaProvider injects the space metadata source
func WithSchemaProvider(p schema.Provider) Option {
	return func(c *Caller) { c.schemas = p }
}

// WithMappingContext injects the entity definition registry
func WithMappingContext(mc *MappingContext) Option {
	return func(c *Caller) { c.entities = mc }
}

// WithRegistry injects the base value converter registry
func WithRegistry(r *Registry) Option {
	return func(c *Caller) { c.registry = r }
}

// WithExecutor injects the executor gating concurrent in-flight waits
func WithExecutor(e Executor) Option {
	return func(c *Caller) { c.exec = e }
}

// WithLogger injects a logger. The default is a no-op logger, so the
// library stays silent unless one is provided.
func WithLogger(log *zap.Logger) Option {
	return func(c *Caller) { c.log = log }
}

// NewCaller creates a dispatcher over the given transport
func NewCaller(transport Transport, opts ...Option) (*Caller, error) {
	if transport == nil {
		return nil, errInvalidArgument("transport must not be nil")
	}
	c := &Caller{
		transport: transport,
		entities:  NewMappingContext(),
		registry:  NewRegistry(),
		exec:      NewBoundedExecutor(DefaultExecutorCapacity),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.entities == nil || c.registry == nil || c.exec == nil || c.log == nil {
		return nil, errInvalidArgument("caller collaborators must not be nil")
	}
	return c, nil
}

// callConverter is one per-call registry addition
type callConverter struct {
	shape  wire.Shape
	target reflect.Type
	conv   Converter
}

// callOptions is the per-invocation configuration assembled from
// CallOption values.
type callOptions struct {
	space      string
	strict     bool
	converters []callConverter
}

// CallOption adjusts one invocation
type CallOption func(*callOptions)

// Space names the remote collection whose schema should drive field-name
// resolution. An empty name means no schema lookup — purely positional
// mapping.
func Space(name string) CallOption {
	return func(o *callOptions) { o.space = name }
}

// StrictSchema makes map-shaped records validate against the space's
// declared field types before conversion. It has no effect without a
// resolvable space.
func StrictSchema() CallOption {
	return func(o *callOptions) { o.strict = true }
}

// UseConverter adds a converter to this call's registry only. The base
// registry is not modified, so concurrent calls never observe it.
func UseConverter(shape wire.Shape, target reflect.Type, conv Converter) CallOption {
	return func(o *callOptions) {
		o.converters = append(o.converters, callConverter{shape: shape, target: target, conv: conv})
	}
}

// Params is argument-canonicalization sugar for building a parameter list
// inline.
func Params(values ...any) []any {
	return values
}

// resolveSpace looks schema metadata up by space name. Absent names,
// absent providers, and unknown spaces all mean "no schema" — positional
// mapping, never an error.
func (c *Caller) resolveSpace(name string) *schema.Space {
	if name == "" || c.schemas == nil {
		return nil
	}
	space, ok := c.schemas.SpaceByName(name)
	if !ok {
		return nil
	}
	return space
}

// chainFor assembles the converter chain for one invocation. Shapes with a
// caller-supplied converter skip schema resolution entirely: the caller's
// function is the whole chain.
func (c *Caller) chainFor(shape ResultShape, o *callOptions) (ConverterChain, error) {
	var space *schema.Space
	var validator *schema.Validator
	registry := c.registry

	if shape.Converter == nil {
		space = c.resolveSpace(o.space)
		if o.strict && space != nil {
			v, err := schema.NewValidator(space)
			if err != nil {
				return nil, err
			}
			validator = v
		}
		for _, cc := range o.converters {
			derived, err := registry.With(cc.shape, cc.target, cc.conv)
			if err != nil {
				return nil, err
			}
			registry = derived
		}
	}

	cp := &composer{registry: registry, entities: c.entities, validator: validator}
	return cp.compose(shape, space), nil
}

// call is the canonical entry point every public operation delegates to:
// validate, compose, execute, unwrap. One remote call per invocation.
func (c *Caller) call(ctx context.Context, function string, params []any, shape ResultShape, opts []CallOption) (any, error) {
	if function == "" {
		return nil, errInvalidArgument("function name must not be empty")
	}
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	chain, err := c.chainFor(shape, o)
	if err != nil {
		return nil, err
	}
	fc, err := NewFunctionCall(function, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.log.Debug("calling remote function",
		zap.String("function", fc.Name),
		zap.Int("params", len(fc.Args)),
		zap.String("request_id", fc.RequestID),
	)

	var result any
	err = c.exec.Do(ctx, func() error {
		future, err := c.transport.Call(ctx, fc, chain)
		if err != nil {
			return err
		}
		res, err := future.Await(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		var mapErr *MappingError
		var argErr *InvalidArgumentError
		if errors.As(err, &mapErr) || errors.As(err, &argErr) {
			return nil, err
		}
		c.log.Warn("remote function failed",
			zap.String("function", fc.Name),
			zap.Int("params", len(fc.Args)),
			zap.String("request_id", fc.RequestID),
			zap.Error(err),
		)
		return nil, &RemoteCallError{
			Function:   fc.Name,
			ParamCount: len(fc.Args),
			RequestID:  fc.RequestID,
			Err:        err,
		}
	}

	c.log.Debug("remote function returned",
		zap.String("function", fc.Name),
		zap.String("request_id", fc.RequestID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// CallForRawTuple invokes a stored function and returns the first result
// tuple, or nil when the reply is empty or absent.
func (c *Caller) CallForRawTuple(ctx context.Context, function string, params []any, opts ...CallOption) (*Tuple, error) {
	tuples, err := c.CallForRawTupleList(ctx, function, params, opts...)
	if err != nil {
		return nil, err
	}
	if len(tuples) == 0 {
		return nil, nil
	}
	return tuples[0], nil
}

// CallForRawTupleList invokes a stored function and returns every result
// tuple. The list may be empty; it is nil only when the remote call itself
// returned no value.
func (c *Caller) CallForRawTupleList(ctx context.Context, function string, params []any, opts ...CallOption) ([]*Tuple, error) {
	shape := ResultShape{Cardinality: List, Representation: RawTuple, Target: tupleType}
	res, err := c.call(ctx, function, params, shape, opts)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	items := res.([]any)
	out := make([]*Tuple, 0, len(items))
	for _, it := range items {
		tup, ok := it.(*Tuple)
		if !ok {
			return nil, &MappingError{
				Target: "tuple",
				Reason: fmt.Sprintf("converter produced %T instead of a tuple", it),
			}
		}
		out = append(out, tup)
	}
	return out, nil
}

// CallForTuple invokes a stored function whose reply is a list of records
// and maps the first record to T, returning nil when the list is empty.
// It is exactly CallForTupleList's first element.
func CallForTuple[T any](ctx context.Context, c *Caller, function string, params []any, opts ...CallOption) (*T, error) {
	result, err := CallForTupleList[T](ctx, c, function, params, opts...)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// CallForTupleList invokes a stored function whose reply is a list of
// records and maps every record to T.
func CallForTupleList[T any](ctx context.Context, c *Caller, function string, params []any, opts ...CallOption) ([]T, error) {
	shape := ResultShape{Cardinality: List, Representation: TypedObject, Target: reflect.TypeOf((*T)(nil)).Elem()}
	res, err := c.call(ctx, function, params, shape, opts)
	if err != nil {
		return nil, err
	}
	return castList[T](res)
}

// CallForObject invokes a stored function carrying a single-value reply
// and maps it to T. A reply that is a collection of records has its first
// record mapped; nil and empty replies yield a nil result.
func CallForObject[T any](ctx context.Context, c *Caller, function string, params []any, opts ...CallOption) (*T, error) {
	shape := ResultShape{Cardinality: Single, Representation: TypedObject, Target: reflect.TypeOf((*T)(nil)).Elem()}
	res, err := c.call(ctx, function, params, shape, opts)
	if err != nil {
		return nil, err
	}
	return castSingle[T](res)
}

// CallForObjectList invokes a stored function whose reply is a collection
// and maps every element to T. An empty reply yields an empty list, never
// nil — unless the remote call itself returned no value.
func CallForObjectList[T any](ctx context.Context, c *Caller, function string, params []any, opts ...CallOption) ([]T, error) {
	shape := ResultShape{Cardinality: List, Representation: TypedObject, Target: reflect.TypeOf((*T)(nil)).Elem()}
	res, err := c.call(ctx, function, params, shape, opts)
	if err != nil {
		return nil, err
	}
	return castList[T](res)
}

// CallForTupleWith is CallForTuple with a caller-supplied converter as the
// entire chain: schema lookup and entity definitions are skipped.
func CallForTupleWith[T any](ctx context.Context, c *Caller, function string, params []any, conv func(v wire.Value) (T, error)) (*T, error) {
	result, err := CallForTupleListWith[T](ctx, c, function, params, conv)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// CallForTupleListWith is CallForTupleList with a caller-supplied
// converter applied to every record.
func CallForTupleListWith[T any](ctx context.Context, c *Caller, function string, params []any, conv func(v wire.Value) (T, error)) ([]T, error) {
	wrapped, err := wrapConverter(conv)
	if err != nil {
		return nil, err
	}
	shape := ResultShape{Cardinality: List, Representation: TypedObject, Converter: wrapped}
	res, err := c.call(ctx, function, params, shape, nil)
	if err != nil {
		return nil, err
	}
	return castList[T](res)
}

// CallForObjectWith is CallForObject with a caller-supplied converter as
// the entire chain.
func CallForObjectWith[T any](ctx context.Context, c *Caller, function string, params []any, conv func(v wire.Value) (T, error)) (*T, error) {
	wrapped, err := wrapConverter(conv)
	if err != nil {
		return nil, err
	}
	shape := ResultShape{Cardinality: Single, Representation: TypedObject, Converter: wrapped}
	res, err := c.call(ctx, function, params, shape, nil)
	if err != nil {
		return nil, err
	}
	return castSingle[T](res)
}

// CallForObjectListWith is CallForObjectList with a caller-supplied
// converter applied to every element.
func CallForObjectListWith[T any](ctx context.Context, c *Caller, function string, params []any, conv func(v wire.Value) (T, error)) ([]T, error) {
	wrapped, err := wrapConverter(conv)
	if err != nil {
		return nil, err
	}
	shape := ResultShape{Cardinality: List, Representation: TypedObject, Converter: wrapped}
	res, err := c.call(ctx, function, params, shape, nil)
	if err != nil {
		return nil, err
	}
	return castList[T](res)
}

// wrapConverter adapts a typed converter into the untyped chain form
func wrapConverter[T any](conv func(v wire.Value) (T, error)) (Converter, error) {
	if conv == nil {
		return nil, errInvalidArgument("entity converter must not be nil")
	}
	return func(v wire.Value) (any, error) {
		out, err := conv(v)
		if err != nil {
			return nil, err
		}
		return out, nil
	}, nil
}

// castSingle narrows a chain result to *T. Entity definitions produce *T,
// custom converters produce T; both are accepted.
func castSingle[T any](res any) (*T, error) {
	switch v := res.(type) {
	case nil:
		return nil, nil
	case *T:
		return v, nil
	case T:
		return &v, nil
	default:
		return nil, &MappingError{
			Target: typeName(reflect.TypeOf((*T)(nil)).Elem()),
			Reason: fmt.Sprintf("converter produced %T", res),
		}
	}
}

// castList narrows a chain result to []T, aborting on the first element
// of an unexpected type.
func castList[T any](res any) ([]T, error) {
	if res == nil {
		return nil, nil
	}
	items := res.([]any)
	out := make([]T, 0, len(items))
	for _, it := range items {
		one, err := castSingle[T](it)
		if err != nil {
			return nil, err
		}
		if one == nil {
			var zero T
			out = append(out, zero)
			continue
		}
		out = append(out, *one)
	}
	return out, nil
}
