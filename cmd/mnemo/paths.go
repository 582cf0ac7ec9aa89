package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// mnemoDir is the per-user state directory under $HOME.
const mnemoDir = ".mnemo"

// Paths holds all resolved mnemo state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home       string // ~/.mnemo or MNEMO_HOME
	DBPath     string // memory.db or MNEMO_DB_PATH
	ConfigPath string // config.yaml or MNEMO_CONFIG
	IndexDir   string // vector/ (respects MNEMO_HOME; config may override)
}

// ResolvePaths returns all mnemo paths, respecting env var overrides.
// Environment variables:
//   - MNEMO_HOME: base directory for all mnemo state (default: ~/.mnemo)
//   - MNEMO_DB_PATH: memory store database (default: $MNEMO_HOME/memory.db)
//   - MNEMO_CONFIG: configuration file (default: $MNEMO_HOME/config.yaml)
//
// If MNEMO_HOME is set, it becomes the base for all default paths.
// Specific env vars (MNEMO_DB_PATH, MNEMO_CONFIG) override both the
// default and the MNEMO_HOME base.
func ResolvePaths() (*Paths, error) {
	home, err := resolveMnemoHome()
	if err != nil {
		return nil, err
	}

	paths := &Paths{
		Home:       home,
		DBPath:     resolvePathWithEnv("MNEMO_DB_PATH", home, "memory.db"),
		ConfigPath: resolvePathWithEnv("MNEMO_CONFIG", home, "config.yaml"),
		IndexDir:   filepath.Join(home, "vector"),
	}

	return paths, nil
}

// resolveMnemoHome returns the mnemo home directory from the MNEMO_HOME
// env var or ~/.mnemo.
func resolveMnemoHome() (string, error) {
	if v := os.Getenv("MNEMO_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, mnemoDir), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
