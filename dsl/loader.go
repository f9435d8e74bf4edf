package dsl

import (
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
)

// ScenarioFactory populates reg and schemas when the scenario it is
// registered under is loaded. Grounded on the teacher's
// `chans.TheChanRegistry.Register(ctx, "eliza", NewEliza)` +
// blank-import pattern: compile-time registration, no dynamic module
// loading (spec.md §9, "Plugin loading via module name convention...
// compile-time registration avoids dynamic module loading where the
// target language discourages it").
type ScenarioFactory func(ctx *Ctx, reg *Registries, schemas *SchemaRegistry) error

// ModuleName implements spec.md §4.3's fixed resolution rule: a
// scenario named "eddsa" resolves to the module identifier
// "zencode_eddsa".
func ModuleName(scenario string) string {
	return "zencode_" + scenario
}

// ScenarioRegistry is the process-wide table of scenario factories
// keyed by module name, plus the record of which scenarios have
// already been loaded into a given destination (for idempotency,
// spec.md §8 property 7).
//
// The idempotency ledger is keyed by (module, destination registries),
// not by module alone: factories are process-wide (registered once
// from init()), but their effect — populating a *Registries/
// *SchemaRegistry pair — is local to whichever Engine owns that pair.
// Keying on module alone would let one Engine's Load silently starve a
// second, independently-constructed Engine of the same scenario's
// patterns, since the second Load would see "already loaded" and skip
// the factory call entirely.
type ScenarioRegistry struct {
	mu        sync.Mutex
	factories map[string]ScenarioFactory
	loaded    map[loadKey]ulid.ULID
	manifests map[string]Manifest
}

// loadKey identifies one module's load into one destination
// *Registries. Pointer identity is enough: an Engine's Registries
// never change after construction.
type loadKey struct {
	module string
	reg    *Registries
}

// TheScenarioRegistry is the process-wide registry scenario plugins
// register themselves into from init(), exactly as the teacher's
// chans.TheChanRegistry is a package-level singleton.
var TheScenarioRegistry = NewScenarioRegistry()

// NewScenarioRegistry returns an empty registry.
func NewScenarioRegistry() *ScenarioRegistry {
	return &ScenarioRegistry{
		factories: make(map[string]ScenarioFactory),
		loaded:    make(map[loadKey]ulid.ULID),
		manifests: make(map[string]Manifest),
	}
}

// Register binds name (a bare scenario name, e.g. "eddsa") to factory.
// Called from a scenario package's init().
func (r *ScenarioRegistry) Register(ctx *Ctx, name string, factory ScenarioFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[ModuleName(name)] = factory
	if ctx != nil {
		ctx.Indf("registered scenario %s", name)
	}
}

// Manifest is the optional, filesystem-described metadata a scenario
// plugin can ship alongside its compiled-in handlers, named
// "zencode_<name>.yaml" under one of the engine's configured scenario
// search paths. The handlers themselves are always native Go
// (compile-time registration per spec.md §9); the manifest only adds
// descriptive metadata an operator can enumerate without inspecting
// the binary.
type Manifest struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns,omitempty"`
}

// ScanManifests walks each root in searchPaths (using
// github.com/bmatcuk/doublestar/v4's glob matching, from the
// vsavkov-kilroy example) looking for zencode_*.yaml manifests and
// records them for later lookup by Load.
func (r *ScenarioRegistry) ScanManifests(ctx *Ctx, searchPaths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, root := range searchPaths {
		fsys := os.DirFS(root)
		matches, err := doublestar.Glob(fsys, "zencode_*.yaml")
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		for _, m := range matches {
			data, err := fs.ReadFile(fsys, m)
			if err != nil {
				return fmt.Errorf("reading manifest %s: %w", m, err)
			}
			var manifest Manifest
			if err := yaml.Unmarshal(data, &manifest); err != nil {
				return fmt.Errorf("parsing manifest %s: %w", m, err)
			}
			if manifest.Name != "" {
				r.manifests[ModuleName(manifest.Name)] = manifest
				if ctx != nil {
					ctx.Inddf("found manifest for %s at %s", manifest.Name, m)
				}
			}
		}
	}
	return nil
}

// LoadResult records what Load did, for the diagnostics dump.
type LoadResult struct {
	Module    string
	LoadID    ulid.ULID
	AlreadyDone bool
	Manifest  *Manifest
}

// Load resolves name to its module identifier and, if it has not
// already been loaded into reg, invokes its factory to populate reg and
// schemas (spec.md §4.2 step 4, §4.3). Loading is idempotent across
// scripts sharing one reg (spec.md §8 property 7): a second Load of the
// same scenario into the same reg is a no-op that returns the original
// LoadID, while a Load into a different reg runs the factory again.
func (r *ScenarioRegistry) Load(ctx *Ctx, name string, reg *Registries, schemas *SchemaRegistry) (*LoadResult, error) {
	module := ModuleName(name)
	key := loadKey{module: module, reg: reg}

	r.mu.Lock()
	if id, done := r.loaded[key]; done {
		manifest := r.manifests[module]
		r.mu.Unlock()
		ctx.Inddf("scenario %s already loaded (load id %s)", name, id)
		return &LoadResult{Module: module, LoadID: id, AlreadyDone: true, Manifest: manifestPtr(manifest)}, nil
	}
	factory, ok := r.factories[module]
	manifest, hasManifest := r.manifests[module]
	r.mu.Unlock()

	if !ok {
		return nil, ScenarioLoadFailure(name, fmt.Errorf("no factory registered for module %s", module))
	}

	if err := factory(ctx, reg, schemas); err != nil {
		return nil, ScenarioLoadFailure(name, err)
	}

	id := ulid.Make()
	r.mu.Lock()
	r.loaded[key] = id
	r.mu.Unlock()

	ctx.Indf("loaded scenario %s (load id %s)", name, id)

	result := &LoadResult{Module: module, LoadID: id}
	if hasManifest {
		result.Manifest = manifestPtr(manifest)
	}
	return result, nil
}

func manifestPtr(m Manifest) *Manifest {
	if m.Name == "" {
		return nil
	}
	return &m
}
