package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleName(t *testing.T) {
	require.Equal(t, "zencode_eddsa", ModuleName("eddsa"))
}

func TestScenarioLoadIsIdempotent(t *testing.T) {
	reg := NewScenarioRegistry()
	ctx := NewTestCtx(nil)

	calls := 0
	reg.Register(ctx, "widget", func(ctx *Ctx, reg *Registries, schemas *SchemaRegistry) error {
		calls++
		reg.GivenFunc("i widget", func(ctx *Ctx, rc *RunContext, args []string) error { return nil })
		return nil
	})

	regs := NewRegistries()
	schemas := NewSchemaRegistry()

	first, err := reg.Load(ctx, "widget", regs, schemas)
	require.NoError(t, err)
	require.False(t, first.AlreadyDone)
	require.Equal(t, 1, calls)

	second, err := reg.Load(ctx, "widget", regs, schemas)
	require.NoError(t, err)
	require.True(t, second.AlreadyDone)
	require.Equal(t, first.LoadID, second.LoadID)
	require.Equal(t, 1, calls, "factory must not run twice")
}

func TestScenarioLoadIndependentAcrossDestinations(t *testing.T) {
	reg := NewScenarioRegistry()
	ctx := NewTestCtx(nil)

	calls := 0
	reg.Register(ctx, "gadget", func(ctx *Ctx, reg *Registries, schemas *SchemaRegistry) error {
		calls++
		reg.GivenFunc("i gadget", func(ctx *Ctx, rc *RunContext, args []string) error { return nil })
		return nil
	})

	regsA := NewRegistries()
	first, err := reg.Load(ctx, "gadget", regsA, NewSchemaRegistry())
	require.NoError(t, err)
	require.False(t, first.AlreadyDone)
	require.Equal(t, 1, calls)

	regsB := NewRegistries()
	second, err := reg.Load(ctx, "gadget", regsB, NewSchemaRegistry())
	require.NoError(t, err)
	require.False(t, second.AlreadyDone, "a second, independent destination must still run the factory")
	require.Equal(t, 2, calls, "each destination registry needs its own factory invocation")

	_, hasA := regsA.Given.Lookup("i gadget")
	_, hasB := regsB.Given.Lookup("i gadget")
	require.True(t, hasA)
	require.True(t, hasB)
}

func TestScenarioLoadUnknownFails(t *testing.T) {
	reg := NewScenarioRegistry()
	ctx := NewTestCtx(nil)
	_, err := reg.Load(ctx, "nonexistent", NewRegistries(), NewSchemaRegistry())
	require.Error(t, err)
}

func TestScenarioLoadFactoryErrorIsFatal(t *testing.T) {
	reg := NewScenarioRegistry()
	ctx := NewTestCtx(nil)
	reg.Register(ctx, "broken", func(ctx *Ctx, reg *Registries, schemas *SchemaRegistry) error {
		return TypeError("cannot register")
	})
	_, err := reg.Load(ctx, "broken", NewRegistries(), NewSchemaRegistry())
	require.Error(t, err)
}
