package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mnemo/pkg/agent"
	"mnemo/pkg/correct"
	"mnemo/pkg/maintain"
	"mnemo/pkg/store"
)

// recentCorrections caps the corrections pane; older entries are in
// `mnemo history`.
const recentCorrections = 5

// resolveDBPath returns the store path from the environment or the
// default under the user's home directory. An unresolvable home
// returns "" and the dashboard renders the not-initialized state.
func resolveDBPath() string {
	if v := os.Getenv("MNEMO_DB_PATH"); v != "" {
		return v
	}
	if v := os.Getenv("MNEMO_HOME"); v != "" {
		return filepath.Join(v, "memory.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mnemo", "memory.db")
}

// fetchHealth loads the store health summary. A store that does not
// exist yet yields a healthy, empty summary rather than an error.
func fetchHealth(ctx context.Context, dbPath string) (maintain.Summary, error) {
	return maintain.Health(ctx, dbPath)
}

// fetchPartitions loads the agent partition listing read-only.
//
// Error cases:
//   - store file missing → empty slice, nil error
//   - open or query failure → nil, error
func fetchPartitions(ctx context.Context, dbPath string) ([]agent.Info, error) {
	if !store.Exists(dbPath) {
		return []agent.Info{}, nil
	}

	db, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store read-only: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close on read-only query path

	infos, err := agent.New(db, agent.Opts{}).Partitions(ctx)
	if err != nil {
		return nil, err
	}
	if infos == nil {
		infos = []agent.Info{}
	}
	return infos, nil
}

// fetchCorrections loads the newest superseded entries read-only,
// capped at recentCorrections.
func fetchCorrections(ctx context.Context, dbPath string) ([]correct.HistoryEntry, error) {
	if !store.Exists(dbPath) {
		return []correct.HistoryEntry{}, nil
	}

	db, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store read-only: %w", err)
	}
	defer db.Close() //nolint:errcheck // best-effort close on read-only query path

	entries, err := correct.SupersededHistory(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(entries) > recentCorrections {
		entries = entries[:recentCorrections]
	}
	if entries == nil {
		entries = []correct.HistoryEntry{}
	}
	return entries, nil
}
