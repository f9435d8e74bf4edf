package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuncSchema(t *testing.T) {
	s := FuncSchema(func(v Value) (Value, error) {
		if v == "bad" {
			return nil, TypeError("rejected")
		}
		return v, nil
	})

	canon, err := s.Validate("good")
	require.NoError(t, err)
	require.Equal(t, "good", canon)

	_, err = s.Validate("bad")
	require.Error(t, err)
}

func TestJSONSchemaValidatesInline(t *testing.T) {
	s := JSONSchema{Inline: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`}

	m := NewMap()
	m.Set("name", "Alice")
	_, err := s.Validate(m)
	require.NoError(t, err)

	empty := NewMap()
	_, err = s.Validate(empty)
	require.Error(t, err)
}

func TestMatchSchema(t *testing.T) {
	s := MatchSchema{Pattern: map[string]interface{}{"kind": "eddsa"}}

	m := NewMap()
	m.Set("kind", "eddsa")
	_, err := s.Validate(m)
	require.NoError(t, err)

	other := NewMap()
	other.Set("kind", "ecdsa")
	_, err = s.Validate(other)
	require.Error(t, err)
}

func TestSchemaRegistryLookup(t *testing.T) {
	r := NewSchemaRegistry()
	r.Register("always", FuncSchema(func(v Value) (Value, error) { return v, nil }))

	_, ok := r.Lookup("always")
	require.True(t, ok)

	_, ok = r.Lookup("missing")
	require.False(t, ok)

	require.Contains(t, r.Names(), "always")
}
