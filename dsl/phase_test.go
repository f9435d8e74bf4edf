package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineTransitions(t *testing.T) {
	cases := []struct {
		name    string
		prefixes []string
		wantPhase Phase
		wantErrAt int // index of prefix expected to fail, -1 if none
	}{
		{"feature to rule", []string{"rule"}, PhaseRule, -1},
		{"feature to scenario", []string{"scenario"}, PhaseScenario, -1},
		{"full happy path", []string{"scenario", "given", "when", "then"}, PhaseThen, -1},
		{"and self-loops in given", []string{"scenario", "given", "and"}, PhaseGiven, -1},
		{"and self-loops in then", []string{"scenario", "given", "then", "and"}, PhaseThen, -1},
		{"and before any phase fails", []string{"and"}, PhaseFeature, 0},
		{"given before scenario fails", []string{"given"}, PhaseFeature, 0},
		{"when before given fails", []string{"scenario", "when"}, PhaseScenario, 1},
		{"rule after scenario fails", []string{"scenario", "rule"}, PhaseScenario, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			var err error
			for i, p := range tc.prefixes {
				err = m.Advance(p)
				if i == tc.wantErrAt {
					require.Error(t, err)
					return
				}
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantPhase, m.Current())
		})
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	assert.True(t, PhaseGiven.IsTerminal())
	assert.True(t, PhaseWhen.IsTerminal())
	assert.True(t, PhaseThen.IsTerminal())
	assert.False(t, PhaseFeature.IsTerminal())
	assert.False(t, PhaseRule.IsTerminal())
	assert.False(t, PhaseScenario.IsTerminal())
}
