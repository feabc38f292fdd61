package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeClassification(t *testing.T) {
	assert.Equal(t, ShapeScalar, Nil().Shape())
	assert.Equal(t, ShapeScalar, Missing().Shape())
	assert.Equal(t, ShapeScalar, NewInt(1).Shape())
	assert.Equal(t, ShapeScalar, NewString("x").Shape())
	assert.Equal(t, ShapeArray, NewArray(NewInt(1)).Shape())
	assert.Equal(t, ShapeMap, NewMap(Entry{Key: "a", Value: NewInt(1)}).Shape())
}

func TestMissingDistinctFromNil(t *testing.T) {
	assert.True(t, Nil().IsNil())
	assert.False(t, Nil().IsMissing())
	assert.True(t, Missing().IsMissing())
	assert.False(t, Missing().IsNil())
	assert.False(t, Nil().Equal(Missing()))
}

func TestScalarAccessors(t *testing.T) {
	n, err := NewInt(42).AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = NewInt(42).AsString()
	assert.Error(t, err)

	s, err := NewString("ann").AsString()
	require.NoError(t, err)
	assert.Equal(t, "ann", s)

	u, err := NewInt(7).AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u)

	_, err = NewInt(-7).AsUint64()
	assert.Error(t, err)
}

func TestMapInsertionOrder(t *testing.T) {
	m := NewMap(
		Entry{Key: "z", Value: NewInt(1)},
		Entry{Key: "a", Value: NewInt(2)},
		Entry{Key: "m", Value: NewInt(3)},
	)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	v, ok := m.MapGet("a")
	require.True(t, ok)
	n, err := v.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok = m.MapGet("nope")
	assert.False(t, ok)
}

func TestMapDuplicateKeyKeepsPosition(t *testing.T) {
	m := NewMap(
		Entry{Key: "a", Value: NewInt(1)},
		Entry{Key: "b", Value: NewInt(2)},
		Entry{Key: "a", Value: NewInt(3)},
	)
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, _ := m.MapGet("a")
	n, _ := v.AsInt64()
	assert.Equal(t, int64(3), n)
}

func TestCoerceInt64(t *testing.T) {
	cases := []struct {
		name string
		in   Value
		want int64
		ok   bool
	}{
		{"int", NewInt(5), 5, true},
		{"uint", NewUint(5), 5, true},
		{"integral float", NewFloat(5.0), 5, true},
		{"fractional float", NewFloat(5.5), 0, false},
		{"numeric string", NewString("12"), 12, true},
		{"other string", NewString("twelve"), 0, false},
		{"bool", NewBool(true), 0, false},
		{"nil", Nil(), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.CoerceInt64()
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceString(t *testing.T) {
	s, err := NewBytes([]byte("ann")).CoerceString()
	require.NoError(t, err)
	assert.Equal(t, "ann", s)

	s, err = NewInt(-3).CoerceString()
	require.NoError(t, err)
	assert.Equal(t, "-3", s)

	_, err = NewBytes([]byte{0xff, 0xfe}).CoerceString()
	assert.Error(t, err)
}

func TestToGo(t *testing.T) {
	v := NewArray(NewInt(1), NewMap(Entry{Key: "k", Value: NewString("v")}))
	raw, err := v.ToGo()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), map[string]any{"k": "v"}}, raw)

	_, err = Missing().ToGo()
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := NewArray(NewInt(1), NewString("x"))
	b := NewArray(NewInt(1), NewString("x"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewArray(NewInt(1))))

	// map equality honors entry order
	m1 := NewMap(Entry{Key: "a", Value: NewInt(1)}, Entry{Key: "b", Value: NewInt(2)})
	m2 := NewMap(Entry{Key: "b", Value: NewInt(2)}, Entry{Key: "a", Value: NewInt(1)})
	assert.False(t, m1.Equal(m2))
}

func TestEqualComparesIntegersNumerically(t *testing.T) {
	assert.True(t, NewInt(42).Equal(NewUint(42)))
	assert.True(t, NewUint(42).Equal(NewInt(42)))
	assert.False(t, NewInt(41).Equal(NewUint(42)))
	assert.False(t, NewInt(-1).Equal(NewUint(math.MaxUint64)))
	assert.False(t, NewInt(42).Equal(NewFloat(42)))
}

func TestValueIsImmutable(t *testing.T) {
	src := []byte{1, 2, 3}
	v := NewBytes(src)
	src[0] = 99
	got, err := v.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	items := []Value{NewInt(1)}
	arr := NewArray(items...)
	items[0] = NewInt(2)
	first, _ := arr.Item(0)
	n, _ := first.AsInt64()
	assert.Equal(t, int64(1), n)
}
