// Package config loads mnemo's YAML configuration. Every knob has a
// default, so a missing config file is not an error and a partial file
// only overrides the keys it names.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the ~/.mnemo/config.yaml structure.
type Config struct {
	Gate        GateConfig        `yaml:"gate"`
	Promotion   PromotionConfig   `yaml:"promotion"`
	Working     WorkingConfig     `yaml:"working"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Semantic    SemanticConfig    `yaml:"semantic"`
}

// GateConfig tunes write admission.
type GateConfig struct {
	MinLength    int     `yaml:"min_length"`
	MinScore     float64 `yaml:"min_score"`
	CriteriaFile string  `yaml:"criteria_file"`
}

// PromotionConfig tunes daily log promotion: the score floor for
// promotion at all, and the cutoffs that band scores into tiers.
type PromotionConfig struct {
	MinScore       float64 `yaml:"min_score"`
	WorkingCutoff  float64 `yaml:"working_cutoff"`
	SemanticCutoff float64 `yaml:"semantic_cutoff"`
}

// WorkingConfig tunes the working tier.
type WorkingConfig struct {
	Capacity int `yaml:"capacity"`
}

// MaintenanceConfig tunes decay pruning and the daemon schedule.
type MaintenanceConfig struct {
	DecayFactor float64 `yaml:"decay_factor"`
	PruneFloor  float64 `yaml:"prune_floor"`
	Schedule    string  `yaml:"schedule"`
}

// SemanticConfig tunes the vector index. An empty IndexPath keeps the
// index under the mnemo home directory.
type SemanticConfig struct {
	IndexPath string `yaml:"index_path"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Gate: GateConfig{
			MinLength: 12,
			MinScore:  0.3,
		},
		Promotion: PromotionConfig{
			MinScore:       0.3,
			WorkingCutoff:  0.75,
			SemanticCutoff: 0.5,
		},
		Working: WorkingConfig{
			Capacity: 50,
		},
		Maintenance: MaintenanceConfig{
			DecayFactor: 0.95,
			PruneFloor:  1.0,
			Schedule:    "@every 6h",
		},
		Semantic: SemanticConfig{},
	}
}

// Load reads the config file at path. A missing file returns Default()
// without error; a file that exists but cannot be parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	//nolint:gosec // path comes from the user's own environment
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultYAML renders the default config with explanatory comments,
// suitable for seeding a fresh install.
func DefaultYAML() string {
	return `# mnemo configuration. Every key is optional; omitted keys use the
# defaults shown here.
gate:
  # Reject content shorter than this many characters.
  min_length: 12
  # Admission threshold for the combined criteria score.
  min_score: 0.3
  # Optional TOML file with extra admission criteria.
  criteria_file: ""

promotion:
  # Staging entries below this gate score are never promoted.
  min_score: 0.3
  # Gate score cutoffs that band promoted entries into tiers:
  # >= working_cutoff goes to working, >= semantic_cutoff to semantic,
  # the rest to session.
  working_cutoff: 0.75
  semantic_cutoff: 0.5

working:
  # Maximum rows in the working tier; the least important rows are
  # evicted past this.
  capacity: 50

maintenance:
  # Per-day multiplier applied to importance since last access.
  decay_factor: 0.95
  # Rows whose decayed importance falls below this are pruned.
  prune_floor: 1.0
  # Cron spec for the maintenance daemon.
  schedule: "@every 6h"

semantic:
  # Vector index directory. Empty keeps it under the mnemo home.
  index_path: ""
`
}

// WriteDefault writes the commented default config to path, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultYAML()), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
