package dsl

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the engine's own configuration, loaded from an optional
// TOML file by the CLI host (spec.md §5: "the host may impose a
// wall-clock budget externally"). The core engine never reads this
// file itself (the only files it reads are the scenario manifests
// under ScenarioPaths); LoadConfig is a convenience for hosts that
// want the same format the retrieval pack's emergent-company-specmcp
// example uses for its own configuration.
type Config struct {
	// ScenarioPaths are directories ScanManifests walks looking for
	// zencode_*.yaml manifests (loader.go).
	ScenarioPaths []string `toml:"scenario_paths"`

	// Budget is the wall-clock budget a host should enforce around a
	// Run call. The core engine does not enforce it itself (spec.md
	// §5: "there is no partial-commit semantics" at the core level).
	Budget time.Duration `toml:"budget"`

	// Verbose/Debug seed a Ctx's trace flags.
	Verbose bool `toml:"verbose"`
	Debug   bool `toml:"debug"`
}

// DefaultConfig returns a Config with no scenario search paths and no
// budget, matching a core engine run with no host constraints.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads a TOML file into a Config.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
