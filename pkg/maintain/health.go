package maintain

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"mnemo/pkg/store"
)

// Summary reports the state of a memory store. MemoriesCount totals
// the live records across the working, session and semantic tiers;
// staging candidates and knowledge entities are reported separately
// in TierCounts.
type Summary struct {
	Healthy        bool           `json:"healthy"`
	MemoriesCount  int            `json:"memories_count"`
	TierCounts     map[string]int `json:"tier_counts"`
	StagingPending int            `json:"staging_pending"`
	Superseded     int            `json:"superseded"`
	DBSizeBytes    int64          `json:"db_size_bytes,omitempty"`
	Path           string         `json:"path,omitempty"`
}

// countQueries maps summary tier names to their live-row counts.
var countQueries = map[string]string{
	"staging":  `SELECT COUNT(*) FROM daily_log WHERE superseded_by IS NULL`,
	"working":  `SELECT COUNT(*) FROM working_memory WHERE superseded_by IS NULL`,
	"session":  `SELECT COUNT(*) FROM session_memory WHERE superseded_by IS NULL`,
	"semantic": `SELECT COUNT(*) FROM semantic_meta WHERE superseded_by IS NULL`,
	"entities": `SELECT COUNT(*) FROM entities`,
}

// Summarize gathers tier counts and an integrity verdict from an open
// store. Healthy means SQLite's quick_check reported no corruption.
func Summarize(ctx context.Context, db *sql.DB) (Summary, error) {
	s := Summary{TierCounts: map[string]int{}}

	for name, q := range countQueries {
		var n int
		if err := db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return s, fmt.Errorf("count %s rows: %w", name, err)
		}
		s.TierCounts[name] = n
	}
	s.MemoriesCount = s.TierCounts["working"] + s.TierCounts["session"] + s.TierCounts["semantic"]

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_log WHERE promoted = 0 AND superseded_by IS NULL`,
	).Scan(&s.StagingPending)
	if err != nil {
		return s, fmt.Errorf("count pending staging rows: %w", err)
	}

	for _, table := range []string{"daily_log", "working_memory", "session_memory", "semantic_meta"} {
		var n int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE superseded_by IS NOT NULL`, table)
		if err := db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return s, fmt.Errorf("count superseded rows: %w", err)
		}
		s.Superseded += n
	}

	var verdict string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&verdict); err != nil {
		return s, fmt.Errorf("run integrity check: %w", err)
	}
	s.Healthy = verdict == "ok"
	return s, nil
}

// Health summarizes the store at path. A store that does not exist yet
// is healthy by definition: there is nothing to be corrupt.
func Health(ctx context.Context, path string) (Summary, error) {
	if !store.Exists(path) {
		return Summary{Healthy: true, Path: path, TierCounts: map[string]int{}}, nil
	}

	db, err := store.OpenReadOnly(path)
	if err != nil {
		return Summary{Path: path}, err
	}
	defer db.Close()

	s, err := Summarize(ctx, db)
	s.Path = path
	if err != nil {
		return s, err
	}
	if info, err := os.Stat(path); err == nil {
		s.DBSizeBytes = info.Size()
	}
	return s, nil
}
