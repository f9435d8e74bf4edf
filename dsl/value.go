package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Octet is an opaque byte sequence, the universal currency for
// cryptographic values (spec.md §3). It is created by the codec
// boundary or by a scenario primitive, and consumed by primitives or
// the codec on the way back out.
type Octet []byte

// Len returns the number of bytes in the Octet.
func (o Octet) Len() int {
	return len(o)
}

// MarshalJSON renders an Octet as a base58 string, matching Zenroom's
// own wire convention for key material (spec.md S1: "base58-encoded").
func (o Octet) MarshalJSON() ([]byte, error) {
	return json.Marshal(Base58Encode(o))
}

// UnmarshalJSON reads an Octet back from a base58 string.
func (o *Octet) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := Base58Decode(s)
	if err != nil {
		return fmt.Errorf("octet: %w", err)
	}
	*o = b
	return nil
}

// Value is recursively either an Octet, an ordered sequence of
// Values, or a mapping from string keys to Values (spec.md §3). JSON
// is the only serialization; decode/encode always goes through
// DecodeValue/EncodeValue so the boundary logic lives in one place.
type Value interface{}

// Seq is the ordered-sequence variant of Value.
type Seq []Value

// Map is the mapping variant of Value. It preserves JSON object
// insertion order, which the "one-deep lookup" rule in spec.md §4.4
// depends on.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty, ordered Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Get returns the Value stored at key, and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value at key, appending key to the insertion order the
// first time it is seen.
func (m *Map) Set(key string, value Value) {
	if _, have := m.values[key]; !have {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key from the Map.
func (m *Map) Delete(key string) {
	if _, have := m.values[key]; !have {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len reports the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON renders the Map preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.keys) == 0 {
		return []byte("{}"), nil
	}
	buf := []byte("{")
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kj, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vj, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kj...)
		buf = append(buf, ':')
		buf = append(buf, vj...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON populates the Map from a JSON object, preserving key
// order via json.Decoder's token stream.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("value: expected JSON object")
	}

	*m = *NewMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("value: expected string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := decodeRaw(raw)
		if err != nil {
			return err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// decodeRaw decodes a single JSON value into our recursive Value type:
// objects become *Map, arrays become Seq, everything else is passed
// through as the Go-native type decoding/json would produce (strings,
// json.Number, bool, nil). The generic codec never turns a string
// into an Octet, even when it is valid base58.
func decodeRaw(raw json.RawMessage) (Value, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	switch trimmed[0] {
	case '{':
		m := NewMap()
		if err := json.Unmarshal(raw, m); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, err
		}
		seq := make(Seq, len(arr))
		for i, r := range arr {
			v, err := decodeRaw(r)
			if err != nil {
				return nil, err
			}
			seq[i] = v
		}
		return seq, nil
	default:
		var x interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&x); err != nil {
			return nil, err
		}
		return x, nil
	}
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// DecodeValue decodes JSON text into a Value per spec.md §3: the
// result is always either *Map, Seq, or a scalar.
func DecodeValue(js string) (Value, error) {
	if js == "" {
		return nil, nil
	}
	raw := json.RawMessage(js)
	v, err := decodeRaw(raw)
	if err != nil {
		return nil, CodecError("decoding value", err)
	}
	return v, nil
}

// EncodeValue renders a Value back to JSON text.
func EncodeValue(v Value) (string, error) {
	js, err := json.Marshal(v)
	if err != nil {
		return "", CodecError("encoding value", err)
	}
	return string(js), nil
}

// JSON is a convenience that renders any value as a compact JSON
// string, falling back to fmt.Sprintf if marshaling fails. Grounded on
// the teacher's identically-named helper.
func JSON(v interface{}) string {
	js, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(js)
}

