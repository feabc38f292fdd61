package tuplecall

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/tuplecall-go/schema"
	"github.com/machinefabric/tuplecall-go/wire"
)

// mockTransport resolves each call from a canned reply table, applying the
// mapper the way a real transport does.
type mockTransport struct {
	replies map[string]wire.Value
	failure error
	calls   []FunctionCall
}

func (m *mockTransport) Call(ctx context.Context, call FunctionCall, mapper ConverterChain) (Future, error) {
	m.calls = append(m.calls, call)
	f := NewChannelFuture()
	if m.failure != nil {
		f.Fail(m.failure)
		return f, nil
	}
	reply, ok := m.replies[call.Name]
	if !ok {
		reply = wire.Nil()
	}
	res, err := mapper(reply)
	if err != nil {
		f.Fail(err)
		return f, nil
	}
	f.Resolve(res)
	return f, nil
}

func newTestCaller(t *testing.T, tr Transport) *Caller {
	t.Helper()
	provider := schema.NewStaticProvider()
	provider.Add(usersSpace(t))
	c, err := NewCaller(tr,
		WithSchemaProvider(provider),
		WithMappingContext(userContext(t)),
	)
	require.NoError(t, err)
	return c
}

func userReply() wire.Value {
	return wire.NewArray(
		wire.NewArray(wire.NewInt(42), wire.NewString("Ann"), wire.NewInt(30)),
	)
}

func TestCallForObjectMapsRecord(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"get_user": userReply()}}
	c := newTestCaller(t, tr)

	user, err := CallForObject[testUser](context.Background(), c, "get_user", Params(42), Space("users"))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, &testUser{ID: 42, Name: "Ann", Age: 30}, user)

	require.Len(t, tr.calls, 1)
	assert.Equal(t, "get_user", tr.calls[0].Name)
	require.Len(t, tr.calls[0].Args, 1)
}

func TestCallForTupleIsListHead(t *testing.T) {
	reply := wire.NewArray(
		wire.NewArray(wire.NewInt(1), wire.NewString("Ann"), wire.NewInt(30)),
		wire.NewArray(wire.NewInt(2), wire.NewString("Bob"), wire.NewInt(25)),
	)
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": reply}}
	c := newTestCaller(t, tr)

	list, err := CallForTupleList[testUser](context.Background(), c, "find_users", nil, Space("users"))
	require.NoError(t, err)
	require.Len(t, list, 2)

	one, err := CallForTuple[testUser](context.Background(), c, "find_users", nil, Space("users"))
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, list[0], *one)
}

func TestCallForObjectEmptyReply(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"get_user": wire.NewArray()}}
	c := newTestCaller(t, tr)

	user, err := CallForObject[testUser](context.Background(), c, "get_user", Params(99))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCallForObjectListEmptyReply(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": wire.NewArray()}}
	c := newTestCaller(t, tr)

	list, err := CallForObjectList[testUser](context.Background(), c, "find_users", nil)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCallForTupleListNilReply(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{}}
	c := newTestCaller(t, tr)

	list, err := CallForTupleList[testUser](context.Background(), c, "absent", nil)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestCallForObjectWithCustomConverter(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"count": wire.NewArray(wire.NewInt(21))}}
	c := newTestCaller(t, tr)

	double := func(v wire.Value) (int64, error) {
		n, err := v.CoerceInt64()
		if err != nil {
			return 0, err
		}
		return n * 2, nil
	}
	res, err := CallForObjectWith[int64](context.Background(), c, "count", nil, double)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(42), *res)
}

func TestCallForTupleWithCustomConverter(t *testing.T) {
	reply := wire.NewArray(
		wire.NewArray(wire.NewInt(1), wire.NewString("Ann"), wire.NewInt(30)),
		wire.NewArray(wire.NewInt(2), wire.NewString("Bob"), wire.NewInt(25)),
	)
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": reply}}
	c := newTestCaller(t, tr)

	nameOf := func(v wire.Value) (string, error) {
		item, ok := v.Item(1)
		if !ok {
			return "", errors.New("record carries no name field")
		}
		return item.AsString()
	}

	names, err := CallForTupleListWith[string](context.Background(), c, "find_users", nil, nameOf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Bob"}, names)

	first, err := CallForTupleWith[string](context.Background(), c, "find_users", nil, nameOf)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Ann", *first)
}

func TestCallForTupleWithEmptyReply(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": wire.NewArray()}}
	c := newTestCaller(t, tr)

	first, err := CallForTupleWith[string](context.Background(), c, "find_users", nil,
		func(v wire.Value) (string, error) { return v.CoerceString() })
	require.NoError(t, err)
	assert.Nil(t, first)
}

func TestCallForRawTupleList(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": userReply()}}
	c := newTestCaller(t, tr)

	tuples, err := c.CallForRawTupleList(context.Background(), "find_users", nil, Space("users"))
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, []string{"id", "name", "age"}, tuples[0].Names())

	one, err := c.CallForRawTuple(context.Background(), "find_users", nil, Space("users"))
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, 3, one.Len())
}

func TestCallForRawTupleEmptyReply(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"find_users": wire.NewArray()}}
	c := newTestCaller(t, tr)

	one, err := c.CallForRawTuple(context.Background(), "find_users", nil)
	require.NoError(t, err)
	assert.Nil(t, one)
}

func TestCallEmptyFunctionName(t *testing.T) {
	c := newTestCaller(t, &mockTransport{})

	_, err := CallForObject[testUser](context.Background(), c, "", nil)
	require.Error(t, err)
	var argErr *InvalidArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestCallUnencodableParameter(t *testing.T) {
	tr := &mockTransport{}
	c := newTestCaller(t, tr)

	_, err := CallForObject[testUser](context.Background(), c, "get_user", Params(make(chan int)))
	require.Error(t, err)
	var argErr *InvalidArgumentError
	assert.True(t, errors.As(err, &argErr))
	assert.Empty(t, tr.calls)
}

func TestRemoteFailureWrapsContext(t *testing.T) {
	boom := errors.New("connection reset")
	tr := &mockTransport{failure: boom}
	c := newTestCaller(t, tr)

	_, err := CallForObject[testUser](context.Background(), c, "get_user", Params("s3cret-token", 2))
	require.Error(t, err)

	var callErr *RemoteCallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "get_user", callErr.Function)
	assert.Equal(t, 2, callErr.ParamCount)
	assert.NotEmpty(t, callErr.RequestID)
	assert.ErrorIs(t, err, boom)
	// parameter values never appear in the error text
	assert.NotContains(t, callErr.Error(), "s3cret-token")
}

func TestMappingFailurePassesThrough(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"get_user": wire.NewArray(wire.NewInt(7))}}
	c := newTestCaller(t, tr)

	// scalar envelope cannot decode into a struct
	_, err := CallForObject[struct{ X func() }](context.Background(), c, "get_user", nil)
	require.Error(t, err)

	var mapErr *MappingError
	assert.True(t, errors.As(err, &mapErr))
	var callErr *RemoteCallError
	assert.False(t, errors.As(err, &callErr))
}

func TestUseConverterScopedToCall(t *testing.T) {
	tr := &mockTransport{replies: map[string]wire.Value{"get_user": userReply()}}
	c := newTestCaller(t, tr)

	marked, err := CallForObject[testUser](context.Background(), c, "get_user", nil,
		UseConverter(wire.ShapeArray, reflect.TypeOf((*testUser)(nil)).Elem(), func(v wire.Value) (any, error) {
			return &testUser{Name: "converted"}, nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "converted", marked.Name)

	// the base registry was not touched: the next call maps normally
	plain, err := CallForObject[testUser](context.Background(), c, "get_user", nil, Space("users"))
	require.NoError(t, err)
	assert.Equal(t, "Ann", plain.Name)
}

func TestStrictSchemaOption(t *testing.T) {
	badDoc := wire.NewMap(
		wire.Entry{Key: "id", Value: wire.NewString("not-a-number")},
		wire.Entry{Key: "name", Value: wire.NewString("Ann")},
	)
	tr := &mockTransport{replies: map[string]wire.Value{"get_user": badDoc}}
	c := newTestCaller(t, tr)

	// without a resolvable space, strict mode is inert
	_, err := CallForObject[testUser](context.Background(), c, "get_user", nil, StrictSchema())
	require.NoError(t, err)

	_, err = CallForObject[testUser](context.Background(), c, "get_user", nil, Space("users"), StrictSchema())
	require.Error(t, err)
	var mapErr *MappingError
	assert.True(t, errors.As(err, &mapErr))
}

func TestNewCallerValidation(t *testing.T) {
	_, err := NewCaller(nil)
	require.Error(t, err)

	_, err = NewCaller(&mockTransport{}, WithRegistry(nil))
	require.Error(t, err)
}

func TestParamsSugar(t *testing.T) {
	assert.Equal(t, []any{1, "a"}, Params(1, "a"))
	assert.Empty(t, Params())
}
