package dsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOctetJSONRoundTripIsBase58(t *testing.T) {
	o := Octet([]byte{0, 1, 2, 250, 251, 252, 253, 254, 255})
	js, err := o.MarshalJSON()
	require.NoError(t, err)

	// A base58 string, not base64: it must not contain '+', '/', or '='.
	s := string(js)
	require.NotContains(t, s, "+")
	require.NotContains(t, s, "/")
	require.NotContains(t, s, "=")

	var back Octet
	require.NoError(t, back.UnmarshalJSON(js))
	require.Equal(t, []byte(o), []byte(back))
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())

	js, err := m.MarshalJSON()
	require.NoError(t, err)

	var decoded Map
	require.NoError(t, decoded.UnmarshalJSON(js))
	require.Equal(t, []string{"z", "a", "m"}, decoded.Keys())
}

func TestDecodeValueNestedShapes(t *testing.T) {
	v, err := DecodeValue(`{"a": [1, {"b": 2}], "c": "text"}`)
	require.NoError(t, err)

	m, ok := v.(*Map)
	require.True(t, ok)

	a, ok := m.Get("a")
	require.True(t, ok)
	seq, ok := a.(Seq)
	require.True(t, ok)
	require.Len(t, seq, 2)

	inner, ok := seq[1].(*Map)
	require.True(t, ok)
	bv, ok := inner.Get("b")
	require.True(t, ok)
	num, ok := bv.(json.Number)
	require.True(t, ok)
	require.Equal(t, "2", num.String())
}

func TestBase58RoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0},
		{0, 0, 1},
		{1, 2, 3, 4, 5},
		[]byte("the quick brown fox"),
	}
	for _, c := range cases {
		enc := Base58Encode(c)
		dec, err := Base58Decode(enc)
		require.NoError(t, err)
		require.Equal(t, c, dec)
	}
}
