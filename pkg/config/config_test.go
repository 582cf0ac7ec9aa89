package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "working:\n  capacity: 10\nmaintenance:\n  decay_factor: 0.9\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Working.Capacity != 10 {
		t.Errorf("capacity = %d, want 10", cfg.Working.Capacity)
	}
	if cfg.Maintenance.DecayFactor != 0.9 {
		t.Errorf("decay_factor = %v, want 0.9", cfg.Maintenance.DecayFactor)
	}
	// Keys the file does not name keep their defaults.
	if cfg.Gate.MinScore != Default().Gate.MinScore {
		t.Errorf("gate.min_score = %v, want default", cfg.Gate.MinScore)
	}
	if cfg.Maintenance.Schedule != Default().Maintenance.Schedule {
		t.Errorf("schedule = %q, want default", cfg.Maintenance.Schedule)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("gate: [not a map"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid yaml did not error")
	}
}

func TestDefaultYAMLRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(DefaultYAML()), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load default yaml: %v", err)
	}
	if cfg != Default() {
		t.Errorf("default yaml parsed to %+v, want Default()", cfg)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Fatal("overwriting existing config did not error")
	}
}
