package tuplecall

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/machinefabric/tuplecall-go/wire"
)

// FunctionCall is one immutable remote invocation: the stored procedure
// name, its already-encoded arguments, and a request id minted for call
// context in logs and errors.
type FunctionCall struct {
	Name      string
	Args      []wire.Value
	RequestID string
}

// NewFunctionCall encodes the given parameters and mints a request id. A
// nil parameter slice is the empty parameter list.
func NewFunctionCall(name string, params []any) (FunctionCall, error) {
	if name == "" {
		return FunctionCall{}, errInvalidArgument("function name must not be empty")
	}
	args := make([]wire.Value, len(params))
	for i, p := range params {
		v, err := wire.FromGo(p)
		if err != nil {
			return FunctionCall{}, errInvalidArgument(fmt.Sprintf("parameter %d is not wire-encodable: %v", i, err))
		}
		args[i] = v
	}
	return FunctionCall{
		Name:      name,
		Args:      args,
		RequestID: uuid.NewString(),
	}, nil
}

// ConverterChain is the composed wire-value-to-result function built for
// one call. It exists only for the duration of that call and carries no
// state between conversions.
type ConverterChain func(v wire.Value) (any, error)

// Future is the transport's pending result. Await blocks until the call
// resolves, fails, or the context is done.
type Future interface {
	Await(ctx context.Context) (any, error)
}

// Transport executes remote calls asynchronously. Implementations decode
// the reply into a wire value, apply the supplied mapper, and resolve the
// returned future with the mapped result. Connection management, retries,
// and the encoding on the socket are entirely the transport's concern.
type Transport interface {
	Call(ctx context.Context, call FunctionCall, mapper ConverterChain) (Future, error)
}

// ChannelFuture is a Future resolved through a channel, for transports and
// tests. Resolve and Fail are each effective once; later settlements are
// ignored.
type ChannelFuture struct {
	done   chan struct{}
	once   sync.Once
	result any
	err    error
}

// NewChannelFuture creates an unresolved future
func NewChannelFuture() *ChannelFuture {
	return &ChannelFuture{done: make(chan struct{})}
}

// Resolve settles the future with a result
func (f *ChannelFuture) Resolve(result any) {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
}

// Fail settles the future with an error
func (f *ChannelFuture) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Await implements Future
func (f *ChannelFuture) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
