package wire

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Codec translates between wire values and their binary encoding. Encoding
// is deterministic (core deterministic CBOR): map entries are emitted in
// sorted key order, so entry insertion order does not survive a round trip.
// Insertion order is a property of the in-memory model only. Integers
// decode as signed when they fit in an int64, keeping the kind produced by
// NewInt stable across a round trip; unsigned values above the int64 range
// are rejected at decode time.
type Codec struct {
	limits Limits
	enc    cbor.EncMode
	dec    cbor.DecMode
}

// NewCodec creates a codec with the given decode limits
func NewCodec(limits Limits) (*Codec, error) {
	if limits.MaxPayload <= 0 {
		return nil, fmt.Errorf("wire: max payload must be positive, got %d", limits.MaxPayload)
	}
	enc, err := cbor.EncOptions{Sort: cbor.SortCoreDeterministic}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("wire: building encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{
		IntDec:           cbor.IntDecConvertSignedOrFail,
		MaxNestedLevels:  limits.MaxDepth,
		MaxArrayElements: limits.MaxArrayElements,
		MaxMapPairs:      limits.MaxMapPairs,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("wire: building decode mode: %w", err)
	}
	return &Codec{limits: limits, enc: enc, dec: dec}, nil
}

// defaultCodec backs the package-level Encode/Decode helpers. The default
// limits are always valid, so construction cannot fail.
var defaultCodec = func() *Codec {
	c, err := NewCodec(DefaultLimits())
	if err != nil {
		panic(err)
	}
	return c
}()

// Encode serializes a wire value using the default codec
func Encode(v Value) ([]byte, error) {
	return defaultCodec.Encode(v)
}

// Decode parses a wire value using the default codec
func Decode(data []byte) (Value, error) {
	return defaultCodec.Decode(data)
}

// DecodeInto structurally converts a wire value into an arbitrary Go target
// using the default codec.
func DecodeInto(v Value, target any) error {
	return defaultCodec.DecodeInto(v, target)
}

// FromGo builds a wire value from a plain Go value using the default codec
func FromGo(v any) (Value, error) {
	return defaultCodec.FromGo(v)
}

// Encode serializes a wire value. The missing marker is not encodable: it
// represents absent data, not a value.
func (c *Codec) Encode(v Value) ([]byte, error) {
	enc, err := v.toEncodable()
	if err != nil {
		return nil, err
	}
	data, err := c.enc.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("wire: encoding %s value: %w", v.Kind(), err)
	}
	return data, nil
}

// Decode parses one encoded value. Payload size and structural limits are
// enforced; anything outside the closed shape set is rejected.
func (c *Codec) Decode(data []byte) (Value, error) {
	if len(data) > c.limits.MaxPayload {
		return Value{}, fmt.Errorf("wire: payload of %d bytes exceeds limit %d", len(data), c.limits.MaxPayload)
	}
	var raw any
	if err := c.dec.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("wire: decoding payload: %w", err)
	}
	return fromDecoded(raw)
}

// DecodeInto structurally converts a wire value into an arbitrary Go
// target by re-encoding it and unmarshalling into the target. Struct
// targets resolve fields through their cbor/json tags or field names.
func (c *Codec) DecodeInto(v Value, target any) error {
	if target == nil {
		return fmt.Errorf("wire: decode target must not be nil")
	}
	data, err := c.Encode(v)
	if err != nil {
		return err
	}
	if err := c.dec.Unmarshal(data, target); err != nil {
		return fmt.Errorf("wire: converting %s value into %T: %w", v.Kind(), target, err)
	}
	return nil
}

// FromGo builds a wire value from a plain Go value. Primitives, slices, and
// string-keyed maps convert directly; anything else (struct parameters and
// the like) goes through the codec. Map entries are ordered by sorted key
// for determinism.
func (c *Codec) FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Nil(), nil
	case Value:
		return x, nil
	case bool:
		return NewBool(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int8:
		return NewInt(int64(x)), nil
	case int16:
		return NewInt(int64(x)), nil
	case int32:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case uint:
		return NewUint(uint64(x)), nil
	case uint8:
		return NewUint(uint64(x)), nil
	case uint16:
		return NewUint(uint64(x)), nil
	case uint32:
		return NewUint(uint64(x)), nil
	case uint64:
		return NewUint(x), nil
	case float32:
		return NewFloat(float64(x)), nil
	case float64:
		return NewFloat(x), nil
	case string:
		return NewString(x), nil
	case []byte:
		return NewBytes(x), nil
	case []Value:
		return NewArray(x...), nil
	case []any:
		items := make([]Value, len(x))
		for i, it := range x {
			conv, err := c.FromGo(it)
			if err != nil {
				return Value{}, err
			}
			items[i] = conv
		}
		return Value{kind: KindArray, items: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			conv, err := c.FromGo(x[k])
			if err != nil {
				return Value{}, err
			}
			entries[i] = Entry{Key: k, Value: conv}
		}
		return NewMap(entries...), nil
	default:
		data, err := c.enc.Marshal(v)
		if err != nil {
			return Value{}, fmt.Errorf("wire: value of type %T is not wire-encodable: %w", v, err)
		}
		return c.Decode(data)
	}
}

// toEncodable converts a value into the Go representation the CBOR encoder
// understands.
func (v Value) toEncodable() (any, error) {
	switch v.kind {
	case KindMissing:
		return nil, fmt.Errorf("wire: missing marker is not encodable")
	case KindArray:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			enc, err := it.toEncodable()
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			enc, err := v.entries[k].toEncodable()
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	default:
		return v.ToGo()
	}
}

// fromDecoded builds a wire value from what the CBOR decoder produced. Map
// keys are sorted so the result is deterministic.
func fromDecoded(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Nil(), nil
	case bool:
		return NewBool(x), nil
	case int64:
		return NewInt(x), nil
	case uint64:
		return NewUint(x), nil
	case float64:
		return NewFloat(x), nil
	case string:
		return NewString(x), nil
	case []byte:
		return NewBytes(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, it := range x {
			conv, err := fromDecoded(it)
			if err != nil {
				return Value{}, err
			}
			items[i] = conv
		}
		return Value{kind: KindArray, items: items}, nil
	case map[any]any:
		keys := make([]string, 0, len(x))
		byKey := make(map[string]any, len(x))
		for k, val := range x {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("wire: map key of type %T is not a string", k)
			}
			keys = append(keys, ks)
			byKey[ks] = val
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			conv, err := fromDecoded(byKey[k])
			if err != nil {
				return Value{}, err
			}
			entries[i] = Entry{Key: k, Value: conv}
		}
		return NewMap(entries...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			conv, err := fromDecoded(x[k])
			if err != nil {
				return Value{}, err
			}
			entries[i] = Entry{Key: k, Value: conv}
		}
		return NewMap(entries...), nil
	default:
		return Value{}, fmt.Errorf("wire: decoded value of type %T is outside the wire model", raw)
	}
}
