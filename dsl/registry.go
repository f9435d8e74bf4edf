package dsl

import "strings"

// Handler is the opaque callable bound to a pattern (spec.md §3).
// Arity equals the number of '' sentinels in the owning pattern; args
// is always exactly that long.
type Handler func(ctx *Ctx, rc *RunContext, args []string) error

// HandlerRegistry is one phase-keyed dictionary mapping a normalized
// pattern string to a Handler (spec.md §4.3). Registration is
// idempotent-by-replacement: "duplicate registration replaces
// silently" (spec.md §4.2 step 7).
type HandlerRegistry struct {
	patterns map[string]Handler
}

func newHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{patterns: make(map[string]Handler)}
}

// Register stores handler under pattern, lowercased, as authored.
func (r *HandlerRegistry) Register(pattern string, handler Handler) {
	r.patterns[strings.ToLower(pattern)] = handler
}

// Lookup performs the exact, case-insensitive match of spec.md §4.2
// step 7.
func (r *HandlerRegistry) Lookup(candidate string) (Handler, bool) {
	h, ok := r.patterns[strings.ToLower(candidate)]
	return h, ok
}

// Registries holds the three phase-keyed dictionaries (C3): Given,
// When, Then.
type Registries struct {
	Given *HandlerRegistry
	When  *HandlerRegistry
	Then  *HandlerRegistry
}

// NewRegistries returns three empty dictionaries.
func NewRegistries() *Registries {
	return &Registries{
		Given: newHandlerRegistry(),
		When:  newHandlerRegistry(),
		Then:  newHandlerRegistry(),
	}
}

// For returns the dictionary for the given phase, or nil if the phase
// has no registry (feature/rule/scenario never match a step pattern).
func (r *Registries) For(p Phase) *HandlerRegistry {
	switch p {
	case PhaseGiven:
		return r.Given
	case PhaseWhen:
		return r.When
	case PhaseThen:
		return r.Then
	default:
		return nil
	}
}

// GivenFunc registers a pattern in the Given dictionary. Scenario plugins
// call this (and When/Then below) from their registration functions,
// the Go analogue of spec.md §4.3's "registration is performed by
// Given, When, Then intrinsic registrars."
func (r *Registries) GivenFunc(pattern string, handler Handler) {
	r.Given.Register(pattern, handler)
}

// WhenFunc registers a pattern in the When dictionary.
func (r *Registries) WhenFunc(pattern string, handler Handler) {
	r.When.Register(pattern, handler)
}

// ThenFunc registers a pattern in the Then dictionary.
func (r *Registries) ThenFunc(pattern string, handler Handler) {
	r.Then.Register(pattern, handler)
}
