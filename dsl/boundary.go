package dsl

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// boundaryMetaSchema is the structural check spec.md §6 imposes on
// DATA before it ever reaches a handler: "must decode to either a
// mapping or an array of mappings". It is a meta-schema in the sense
// that it constrains the *shape* of DATA, not any scenario-specific
// content — content-level checks belong to the named Schema Registry
// (schema.go) and are reached only through validate().
const boundaryMetaSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"oneOf": [
		{"type": "object"},
		{"type": "array", "items": {"type": "object"}},
		{"type": "null"}
	]
}`

// keysMetaSchema is the structural check spec.md §6 imposes on KEYS:
// "key-material JSON; mapping" — unlike DATA, no array-of-mappings
// alternative is allowed.
const keysMetaSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"oneOf": [
		{"type": "object"},
		{"type": "null"}
	]
}`

var (
	compiledBoundarySchema = mustCompileSchema("boundary.json", boundaryMetaSchema)
	compiledKeysSchema     = mustCompileSchema("keys.json", keysMetaSchema)
)

func mustCompileSchema(resource, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, strings.NewReader(doc)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		panic(err)
	}
	return schema
}

// checkShape re-decodes v to plain JSON and validates it against
// compiled, reporting failures with msg.
func checkShape(v Value, compiled *jsonschema.Schema, msg string) error {
	js, err := EncodeValue(v)
	if err != nil {
		return err
	}
	if js == "" || js == "null" {
		return nil
	}

	var plain interface{}
	dec := json.NewDecoder(strings.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&plain); err != nil {
		return CodecError("re-decoding for boundary check", err)
	}

	if err := compiled.Validate(plain); err != nil {
		return CodecError(msg, err)
	}
	return nil
}

// checkBoundaryShape enforces spec.md §6's DATA shape constraint using
// github.com/santhosh-tekuri/jsonschema/v5 against the raw decoded
// JSON (not our *Map/Seq wrapper, which jsonschema doesn't know about).
func checkBoundaryShape(v Value) error {
	return checkShape(v, compiledBoundarySchema, "DATA must decode to a mapping or an array of mappings")
}

// checkKeysShape enforces spec.md §6's KEYS shape constraint: a
// mapping only, with no array-of-mappings alternative.
func checkKeysShape(v Value) error {
	return checkShape(v, compiledKeysSchema, "KEYS must decode to a mapping")
}
