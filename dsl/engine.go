package dsl

// Engine bundles the process-wide state a ZenDSL deployment shares
// across every script it parses and runs in one process: the three
// handler dictionaries, the schema registry, and the scenario loader's
// idempotency ledger. Sharing this state across scripts (rather than
// recreating it per script) is what makes spec.md §8 property 7 hold
// ("parsing two scripts in one process... loads the module exactly
// once").
type Engine struct {
	Registries *Registries
	Schemas    *SchemaRegistry
	Scenarios  *ScenarioRegistry
	Config     *Config
}

// NewEngine returns an Engine with its own fresh registries, wired to
// the process-wide TheScenarioRegistry so that any scenario package
// blank-imported for its init() side effect is available for loading.
// Built-in verbs (C10) are registered immediately, since they do not
// depend on any scenario being loaded.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	reg := NewRegistries()
	RegisterBuiltins(reg)
	return &Engine{
		Registries: reg,
		Schemas:    NewSchemaRegistry(),
		Scenarios:  TheScenarioRegistry,
		Config:     cfg,
	}
}

// Parse runs the parser against source using this Engine's shared
// state.
func (e *Engine) Parse(ctx *Ctx, source string) (*Script, error) {
	if len(e.Config.ScenarioPaths) > 0 {
		if err := e.Scenarios.ScanManifests(ctx, e.Config.ScenarioPaths); err != nil {
			ctx.Warnf("scanning scenario manifests: %v", err)
		}
	}
	return Parse(ctx, source, e.Registries, e.Schemas, e.Scenarios)
}

// Run executes a parsed Script against the two JSON inputs.
func (e *Engine) Run(ctx *Ctx, script *Script, dataJSON, keysJSON string) (*Result, error) {
	return Run(ctx, script, dataJSON, keysJSON, e.Schemas)
}

// ParseAndRun is the two-stage lifecycle (spec.md §1) in one call.
func (e *Engine) ParseAndRun(ctx *Ctx, source, dataJSON, keysJSON string) (*Result, error) {
	script, err := e.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, script, dataJSON, keysJSON)
}
