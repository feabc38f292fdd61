// Package wire models values as decoded from the binary protocol, before any
// domain-specific interpretation. Every value has one of three shapes:
// Scalar, Array, or Map. Conversions elsewhere in the module pattern-match
// over this closed set; a transport that produces anything else violates its
// contract.
package wire

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Shape classifies a wire value at the level the conversion pipeline cares
// about. The set is closed: Scalar, Array, Map.
type Shape uint8

const (
	ShapeScalar Shape = iota
	ShapeArray
	ShapeMap
)

// String returns the shape name
func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeArray:
		return "array"
	case ShapeMap:
		return "map"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// Kind is the concrete runtime kind of a wire value. Scalar shapes split
// into the individual scalar kinds; KindMissing marks a schema field that
// was declared but absent from a map-shaped record. Missing is distinct
// from KindNil (present but null) and never appears on the wire itself.
type Kind uint8

const (
	KindNil Kind = iota
	KindMissing
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindMissing:
		return "missing"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Entry is one key/value pair of a map-shaped value. Map-shaped values keep
// their entries in insertion order.
type Entry struct {
	Key   string
	Value Value
}

// Value is an immutable wire value. The zero Value is nil-kind.
type Value struct {
	kind    Kind
	boolVal bool
	intVal  int64
	uintVal uint64
	fltVal  float64
	strVal  string
	binVal  []byte
	items   []Value
	keys    []string
	entries map[string]Value
}

// Nil returns the nil scalar value
func Nil() Value {
	return Value{kind: KindNil}
}

// Missing returns the missing-field marker. It is not encodable and exists
// only so callers can distinguish "field absent from the record" from
// "field present with a null value".
func Missing() Value {
	return Value{kind: KindMissing}
}

// NewBool creates a boolean scalar
func NewBool(b bool) Value {
	return Value{kind: KindBool, boolVal: b}
}

// NewInt creates a signed integer scalar
func NewInt(n int64) Value {
	return Value{kind: KindInt, intVal: n}
}

// NewUint creates an unsigned integer scalar
func NewUint(n uint64) Value {
	return Value{kind: KindUint, uintVal: n}
}

// NewFloat creates a floating point scalar
func NewFloat(f float64) Value {
	return Value{kind: KindFloat, fltVal: f}
}

// NewString creates a string scalar
func NewString(s string) Value {
	return Value{kind: KindString, strVal: s}
}

// NewBytes creates a binary scalar. The slice is copied.
func NewBytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, binVal: cp}
}

// NewArray creates an array-shaped value from the given items
func NewArray(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, items: cp}
}

// NewMap creates a map-shaped value from the given entries, preserving
// their order. A duplicate key overwrites the earlier value but keeps the
// original position.
func NewMap(entries ...Entry) Value {
	keys := make([]string, 0, len(entries))
	byKey := make(map[string]Value, len(entries))
	for _, e := range entries {
		if _, seen := byKey[e.Key]; !seen {
			keys = append(keys, e.Key)
		}
		byKey[e.Key] = e.Value
	}
	return Value{kind: KindMap, keys: keys, entries: byKey}
}

// Kind returns the concrete kind of the value
func (v Value) Kind() Kind {
	return v.kind
}

// Shape returns the shape of the value. All scalar kinds (including nil and
// the missing marker) report ShapeScalar.
func (v Value) Shape() Shape {
	switch v.kind {
	case KindArray:
		return ShapeArray
	case KindMap:
		return ShapeMap
	default:
		return ShapeScalar
	}
}

// IsNil reports whether the value is the nil scalar
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsMissing reports whether the value is the missing-field marker
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// AsBool returns the boolean payload, failing on any other kind
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("wire: value is %s, not bool", v.kind)
	}
	return v.boolVal, nil
}

// AsInt64 returns the signed integer payload. Unsigned values that fit in
// an int64 are accepted.
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.intVal, nil
	case KindUint:
		if v.uintVal > math.MaxInt64 {
			return 0, fmt.Errorf("wire: unsigned value %d overflows int64", v.uintVal)
		}
		return int64(v.uintVal), nil
	default:
		return 0, fmt.Errorf("wire: value is %s, not int", v.kind)
	}
}

// AsUint64 returns the unsigned integer payload. Non-negative signed values
// are accepted.
func (v Value) AsUint64() (uint64, error) {
	switch v.kind {
	case KindUint:
		return v.uintVal, nil
	case KindInt:
		if v.intVal < 0 {
			return 0, fmt.Errorf("wire: negative value %d cannot be uint64", v.intVal)
		}
		return uint64(v.intVal), nil
	default:
		return 0, fmt.Errorf("wire: value is %s, not uint", v.kind)
	}
}

// AsFloat64 returns the floating point payload, failing on any other kind
func (v Value) AsFloat64() (float64, error) {
	if v.kind != KindFloat {
		return 0, fmt.Errorf("wire: value is %s, not float", v.kind)
	}
	return v.fltVal, nil
}

// AsString returns the string payload, failing on any other kind
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("wire: value is %s, not string", v.kind)
	}
	return v.strVal, nil
}

// AsBytes returns a copy of the binary payload, failing on any other kind
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, fmt.Errorf("wire: value is %s, not bytes", v.kind)
	}
	cp := make([]byte, len(v.binVal))
	copy(cp, v.binVal)
	return cp, nil
}

// Len returns the number of items (array) or entries (map), and 0 for
// scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindMap:
		return len(v.keys)
	default:
		return 0
	}
}

// Items returns a copy of the array items. Nil for non-arrays.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Item returns the array item at position i
func (v Value) Item(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Keys returns a copy of the map keys in insertion order. Nil for non-maps.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	cp := make([]string, len(v.keys))
	copy(cp, v.keys)
	return cp
}

// MapGet returns the map entry for the given key
func (v Value) MapGet(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	val, ok := v.entries[key]
	return val, ok
}

// CoerceInt64 converts the value to int64 on a best-effort basis: signed
// and unsigned integers, floats holding an integral value, and numeric
// strings are accepted.
func (v Value) CoerceInt64() (int64, error) {
	switch v.kind {
	case KindInt, KindUint:
		return v.AsInt64()
	case KindFloat:
		if v.fltVal != math.Trunc(v.fltVal) {
			return 0, fmt.Errorf("wire: float %v is not integral", v.fltVal)
		}
		return int64(v.fltVal), nil
	case KindString:
		n, err := strconv.ParseInt(v.strVal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("wire: string %q is not an integer", v.strVal)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("wire: cannot coerce %s to int", v.kind)
	}
}

// CoerceUint64 converts the value to uint64 on a best-effort basis
func (v Value) CoerceUint64() (uint64, error) {
	switch v.kind {
	case KindInt, KindUint:
		return v.AsUint64()
	case KindFloat:
		if v.fltVal < 0 || v.fltVal != math.Trunc(v.fltVal) {
			return 0, fmt.Errorf("wire: float %v is not an unsigned integer", v.fltVal)
		}
		return uint64(v.fltVal), nil
	case KindString:
		n, err := strconv.ParseUint(v.strVal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("wire: string %q is not an unsigned integer", v.strVal)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("wire: cannot coerce %s to uint", v.kind)
	}
}

// CoerceFloat64 converts the value to float64 on a best-effort basis
func (v Value) CoerceFloat64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.fltVal, nil
	case KindInt:
		return float64(v.intVal), nil
	case KindUint:
		return float64(v.uintVal), nil
	case KindString:
		f, err := strconv.ParseFloat(v.strVal, 64)
		if err != nil {
			return 0, fmt.Errorf("wire: string %q is not a number", v.strVal)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("wire: cannot coerce %s to float", v.kind)
	}
}

// CoerceString converts the value to a string on a best-effort basis:
// strings, valid UTF-8 byte payloads, numbers, and booleans are accepted.
func (v Value) CoerceString() (string, error) {
	switch v.kind {
	case KindString:
		return v.strVal, nil
	case KindBytes:
		if !utf8.Valid(v.binVal) {
			return "", fmt.Errorf("wire: bytes payload is not valid UTF-8")
		}
		return string(v.binVal), nil
	case KindInt:
		return strconv.FormatInt(v.intVal, 10), nil
	case KindUint:
		return strconv.FormatUint(v.uintVal, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.fltVal, 'g', -1, 64), nil
	case KindBool:
		return strconv.FormatBool(v.boolVal), nil
	default:
		return "", fmt.Errorf("wire: cannot coerce %s to string", v.kind)
	}
}

// CoerceBool converts the value to a bool on a best-effort basis: booleans
// and the strings "true"/"false" are accepted.
func (v Value) CoerceBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.boolVal, nil
	case KindString:
		b, err := strconv.ParseBool(v.strVal)
		if err != nil {
			return false, fmt.Errorf("wire: string %q is not a bool", v.strVal)
		}
		return b, nil
	default:
		return false, fmt.Errorf("wire: cannot coerce %s to bool", v.kind)
	}
}

// CoerceBytes converts the value to a byte slice on a best-effort basis
func (v Value) CoerceBytes() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return v.AsBytes()
	case KindString:
		return []byte(v.strVal), nil
	default:
		return nil, fmt.Errorf("wire: cannot coerce %s to bytes", v.kind)
	}
}

// ToGo converts the value into plain Go data: nil, bool, int64, uint64,
// float64, string, []byte, []any, or map[string]any. Map key order is lost
// in the conversion. The missing marker fails: it represents the absence of
// data and has no Go equivalent.
func (v Value) ToGo() (any, error) {
	switch v.kind {
	case KindNil:
		return nil, nil
	case KindMissing:
		return nil, fmt.Errorf("wire: missing marker has no Go representation")
	case KindBool:
		return v.boolVal, nil
	case KindInt:
		return v.intVal, nil
	case KindUint:
		return v.uintVal, nil
	case KindFloat:
		return v.fltVal, nil
	case KindString:
		return v.strVal, nil
	case KindBytes:
		cp := make([]byte, len(v.binVal))
		copy(cp, v.binVal)
		return cp, nil
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			conv, err := it.ToGo()
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			conv, err := v.entries[k].ToGo()
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wire: unknown kind %s", v.kind)
	}
}

// Equal reports deep equality of two wire values. Signed and unsigned
// integers holding the same number are equal regardless of kind; map
// comparison honors entry order.
func (v Value) Equal(other Value) bool {
	if isIntegerKind(v.kind) && isIntegerKind(other.kind) {
		return integersEqual(v, other)
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil, KindMissing:
		return true
	case KindBool:
		return v.boolVal == other.boolVal
	case KindFloat:
		return v.fltVal == other.fltVal
	case KindString:
		return v.strVal == other.strVal
	case KindBytes:
		return string(v.binVal) == string(other.binVal)
	case KindArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for i, k := range v.keys {
			if other.keys[i] != k {
				return false
			}
			if !v.entries[k].Equal(other.entries[k]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// isIntegerKind reports whether a kind is one of the integer kinds
func isIntegerKind(k Kind) bool {
	return k == KindInt || k == KindUint
}

// integersEqual compares two integer values numerically across kinds
func integersEqual(a, b Value) bool {
	if a.kind == KindInt && b.kind == KindInt {
		return a.intVal == b.intVal
	}
	if a.kind == KindUint && b.kind == KindUint {
		return a.uintVal == b.uintVal
	}
	signed, unsigned := a, b
	if a.kind == KindUint {
		signed, unsigned = b, a
	}
	return signed.intVal >= 0 && uint64(signed.intVal) == unsigned.uintVal
}

// String renders the value for debugging and error messages
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindMissing:
		return "<missing>"
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindUint:
		return strconv.FormatUint(v.uintVal, 10)
	case KindFloat:
		return strconv.FormatFloat(v.fltVal, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.strVal)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.binVal))
	case KindArray:
		return fmt.Sprintf("array(%d)", len(v.items))
	case KindMap:
		return fmt.Sprintf("map(%d)", len(v.keys))
	default:
		return v.kind.String()
	}
}
