package dsl

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sources(ast AST) []string {
	out := make([]string, len(ast))
	for i, n := range ast {
		out[i] = n.Source
	}
	return out
}

// freshEngine returns registries/schemas/scenarios independent of the
// process-wide TheScenarioRegistry, plus a trivial "identity" scenario
// registered under it for scripts that only exercise built-ins.
func freshEngineWithIdentity(t *testing.T) (*Registries, *SchemaRegistry, *ScenarioRegistry) {
	t.Helper()
	reg := NewRegistries()
	RegisterBuiltins(reg)
	schemas := NewSchemaRegistry()
	schemas.Register("identity", FuncSchema(func(v Value) (Value, error) { return v, nil }))

	scenarios := NewScenarioRegistry()
	ctx := NewTestCtx(nil)
	scenarios.Register(ctx, "noop", func(ctx *Ctx, reg *Registries, schemas *SchemaRegistry) error {
		return nil
	})
	return reg, schemas, scenarios
}

func TestParseS2InvalidTransition(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	_, err := Parse(ctx, "When I sign 'msg'\n# padding to reach min length", reg, schemas, scenarios)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestParseS3UnknownStep(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\nGiven I dance the tango"
	_, err := Parse(ctx, source, reg, schemas, scenarios)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownStep))
}

func TestParseRejectsTooShortScript(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)
	_, err := Parse(ctx, "given x", reg, schemas, scenarios)
	require.Error(t, err)
}

func TestParseRejectsNonTerminalEnding(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)
	_, err := Parse(ctx, "Scenario 'noop'", reg, schemas, scenarios)
	require.Error(t, err)
}

func TestParseCommentsAndBlankLinesAreNoOps(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	plain := "Scenario 'noop'\nGiven I am 'Alice'\nThen print my 'keyring'"
	withNoise := "Scenario 'noop'\n# a comment\n\nGiven I am 'Alice'\n\n# another\nThen print my 'keyring'"

	s1, err := Parse(ctx, plain, reg, schemas, scenarios)
	require.NoError(t, err)
	s2, err := Parse(ctx, withNoise, reg, schemas, scenarios)
	require.NoError(t, err)

	if diff := cmp.Diff(sources(s1.AST), sources(s2.AST)); diff != "" {
		t.Errorf("comment/blank-line noise changed the bound AST (-want +got):\n%s", diff)
	}
}

func TestParseASTOrderingMatchesSourceOrder(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\nGiven I am 'Alice'\nAnd I have a 'document'\nThen print my 'keyring'"
	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	require.Len(t, script.AST, 3)
	for i := 1; i < len(script.AST); i++ {
		require.Less(t, script.AST[i-1].ID, script.AST[i].ID)
	}
}

func TestRunS6ArrayOfMappingsFlattening(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\n" +
		"Given I have a 'a'\n" +
		"And I validate the 'identity' data with 'a'\n" +
		"And I ack the 'a' data\n" +
		"And I have a 'b'\n" +
		"And I validate the 'identity' data with 'b'\n" +
		"And I ack the 'b' data\n" +
		"Then print 'a'\n" +
		"And print 'b'"

	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	result, err := Run(ctx, script, `[{"a":1},{"b":2}]`, "", schemas)
	require.NoError(t, err)

	a, ok := result.OUT.Get("a")
	require.True(t, ok)
	b, ok := result.OUT.Get("b")
	require.True(t, ok)
	require.NotNil(t, a)
	require.NotNil(t, b)
}

func TestRunS4PickNotFound(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\nGiven I have a 'bob_pubkey'\nThen print 'bob_pubkey'"
	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	_, err = Run(ctx, script, `{"alice_pubkey": "x"}`, "", schemas)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestRunS5SchemaFailureProducesNoOUT(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)
	schemas.Register("strict", FuncSchema(func(v Value) (Value, error) {
		return nil, TypeError("always rejects")
	}))

	source := "Scenario 'noop'\nGiven I have a 'thing'\nAnd I validate the 'strict' data with 'thing'\nThen print 'thing'"
	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	result, err := Run(ctx, script, `{"thing": "value"}`, "", schemas)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSchemaFailed))
	require.Nil(t, result)
}

func TestRunRoundTripInvariant(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\nGiven I have a 'k'\nAnd I validate the 'identity' data with 'k'\nAnd I ack the data\nThen print 'data'"
	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	result, err := Run(ctx, script, `{"k": "v"}`, "", schemas)
	require.NoError(t, err)
	v, ok := result.OUT.Get("data")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestRunPickAndAckmyInlineObjectModes(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	source := "Scenario 'noop'\n" +
		"Given I am 'Alice'\n" +
		"And I am known\n" +
		"And I have a 'identity' as object 'keys'\n" +
		"And I ack my 'keyring' as object 'keys'\n" +
		"Then print my 'keyring'"

	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	result, err := Run(ctx, script, `{"keys": {"x": 1}}`, "", schemas)
	require.NoError(t, err)

	alice, ok := result.OUT.Get("Alice")
	require.True(t, ok)
	aliceMap, ok := alice.(*Map)
	require.True(t, ok)
	keyring, ok := aliceMap.Get("keyring")
	require.True(t, ok)
	keyringMap, ok := keyring.(*Map)
	require.True(t, ok)
	v, ok := keyringMap.Get("x")
	require.True(t, ok)
	require.Equal(t, json.Number("1"), v)
}

func TestRunINImmutableAcrossSteps(t *testing.T) {
	reg, schemas, scenarios := freshEngineWithIdentity(t)
	ctx := NewTestCtx(nil)

	// A Given step that overwrites IN['k']: the later pick of 'k'
	// must re-resolve it from the immutable DATA input, not from the
	// mutated leftover.
	reg.GivenFunc("i overwrite ''", func(ctx *Ctx, rc *RunContext, args []string) error {
		rc.Given().IN().Set(args[0], "tampered")
		return nil
	})

	source := "Scenario 'noop'\nGiven I have a 'k'\nAnd I overwrite 'k'\nAnd I have a 'k'\n" +
		"And I validate the 'identity' data with 'k'\nAnd I ack the data\nThen print 'data'"
	script, err := Parse(ctx, source, reg, schemas, scenarios)
	require.NoError(t, err)

	result, err := Run(ctx, script, `{"k": "v"}`, "", schemas)
	require.NoError(t, err)
	v, ok := result.OUT.Get("data")
	require.True(t, ok)
	require.Equal(t, "v", v)
}
