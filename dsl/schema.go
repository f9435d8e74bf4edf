package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/Comcast/sheens/match"
	jschema "github.com/xeipuuv/gojsonschema"
)

// Schema is a named validator: a pure function from Value to a
// canonical (validated) Value, or a failure (spec.md §3, §4.4
// "validate"). Every backend below implements this one interface so
// `validate` never needs to know which kind of schema answered a
// given name.
type Schema interface {
	// Validate returns the canonical form of v, or an error
	// describing why v was rejected.
	Validate(v Value) (Value, error)
}

// FuncSchema is the baseline backend: a plain Go function.
type FuncSchema func(Value) (Value, error)

func (f FuncSchema) Validate(v Value) (Value, error) { return f(v) }

// JSONSchema validates against a JSON Schema document loaded from a
// URI or inline text, using github.com/xeipuuv/gojsonschema. It is
// grounded directly on the teacher's validateSchema helper in
// dsl/spec.go, which validates a Pub/Recv payload against a JSON
// Schema URI before further processing.
type JSONSchema struct {
	// URI, if set, is passed to gojsonschema.NewReferenceLoader.
	URI string
	// Inline, if URI is empty, is the schema document itself.
	Inline string
}

func (s JSONSchema) Validate(v Value) (Value, error) {
	js, err := EncodeValue(v)
	if err != nil {
		return nil, err
	}

	var loader jschema.JSONLoader
	if s.URI != "" {
		loader = jschema.NewReferenceLoader(s.URI)
	} else {
		loader = jschema.NewStringLoader(s.Inline)
	}

	result, err := jschema.Validate(loader, jschema.NewStringLoader(js))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.String()
		}
		return nil, fmt.Errorf("%v", msgs)
	}
	return v, nil
}

// MatchSchema validates that v matches a Sheens pattern, the same
// match.Match(pattern, fact, bindings) call the teacher uses in
// Recv.Exec to accept or reject an incoming message.
type MatchSchema struct {
	Pattern interface{}
}

func (s MatchSchema) Validate(v Value) (Value, error) {
	target, err := valueToPlain(v)
	if err != nil {
		return nil, err
	}

	bss, err := match.Match(s.Pattern, target, match.NewBindings())
	if err != nil {
		return nil, fmt.Errorf("match error: %w", err)
	}
	if len(bss) == 0 {
		return nil, fmt.Errorf("value does not match pattern")
	}
	return v, nil
}

// valueToPlain round-trips a Value through JSON so it can be handed to
// sheens/match, which expects plain map[string]interface{}/[]interface{}
// rather than our *Map/Seq wrappers.
func valueToPlain(v Value) (interface{}, error) {
	js, err := EncodeValue(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		return nil, CodecError("decoding for match", err)
	}
	return out, nil
}

// SchemaRegistry is the `schemas` compartment (spec.md §3): named
// validators, populated at scenario load and read by validate() for
// the lifetime of the process (spec.md §3 compartment table).
type SchemaRegistry struct {
	schemas map[string]Schema
}

// NewSchemaRegistry returns an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]Schema)}
}

// Register adds or replaces the schema named name.
func (r *SchemaRegistry) Register(name string, s Schema) {
	r.schemas[name] = s
}

// Lookup returns the schema named name, if any.
func (r *SchemaRegistry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered schema names, for diagnostics.
func (r *SchemaRegistry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	return names
}
