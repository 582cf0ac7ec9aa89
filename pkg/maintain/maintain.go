package maintain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mnemo/pkg/store"
	"mnemo/pkg/tier"
)

// Config tunes one maintenance run.
type Config struct {
	// DecayFactor is the per-day importance multiplier (default 0.95).
	DecayFactor float64

	// PruneFloor removes rows whose effective importance falls below
	// it (default 1.0, so a fresh importance-1 row is never pruned).
	PruneFloor float64

	// DryRun reports what would be removed without removing anything.
	DryRun bool
}

// Result summarizes a maintenance run.
type Result struct {
	StaleEntriesPruned int      `json:"stale_entries_pruned"`
	DuplicatesRemoved  int      `json:"duplicates_removed"`
	Reindexed          int      `json:"reindexed,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// decayTables are the tiers subject to pruning and deduplication.
// Staging and knowledge rows do not decay.
var decayTables = []string{"working_memory", "session_memory", "semantic_meta"}

// Run executes the maintenance passes against an open store: stale
// pruning, then deduplication, then a semantic reindex when tiers
// carries a usable vector index (tiers may be nil).
func Run(ctx context.Context, db *sql.DB, tiers *tier.Tiers, cfg Config) (Result, error) {
	if cfg.DecayFactor <= 0 || cfg.DecayFactor >= 1 {
		cfg.DecayFactor = DefaultDecayFactor
	}
	if cfg.PruneFloor <= 0 {
		cfg.PruneFloor = DefaultPruneFloor
	}

	var res Result
	now := time.Now()

	for _, table := range decayTables {
		pruned, err := pruneStale(ctx, db, table, now, cfg)
		if err != nil {
			return res, fmt.Errorf("prune %s: %w", table, err)
		}
		res.StaleEntriesPruned += pruned
	}

	for _, table := range decayTables {
		removed, err := dedupe(ctx, db, table, cfg.DryRun)
		if err != nil {
			return res, fmt.Errorf("dedupe %s: %w", table, err)
		}
		res.DuplicatesRemoved += removed
	}

	if tiers != nil && !cfg.DryRun {
		n, err := tiers.Semantic.Reindex(ctx)
		if err != nil && !errors.Is(err, tier.ErrNoIndex) {
			return res, fmt.Errorf("reindex semantic tier: %w", err)
		}
		res.Reindexed = n
	}

	recs, err := recommendations(ctx, db)
	if err != nil {
		return res, err
	}
	res.Recommendations = recs
	return res, nil
}

// RunPath runs maintenance against a store file. A missing store is
// not an error: it returns zero counts and a recommendation instead.
func RunPath(ctx context.Context, path string, cfg Config) (Result, error) {
	if !store.Exists(path) {
		return Result{Recommendations: []string{"initialize the store first"}}, nil
	}
	db, err := store.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()
	return Run(ctx, db, nil, cfg)
}

// decayRow is the minimal projection pruning needs.
type decayRow struct {
	id         int64
	importance int
	lastAccess string
}

// pruneStale deletes rows whose decayed importance has fallen below
// the floor. Shared working rows still referenced by a live session
// row are exempt: another agent's session is leaning on them.
func pruneStale(ctx context.Context, db *sql.DB, table string, now time.Time, cfg Config) (int, error) {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, importance, last_access FROM %s`, table))
	if err != nil {
		return 0, fmt.Errorf("scan candidates: %w", err)
	}
	defer rows.Close()

	var candidates []int64
	for rows.Next() {
		var r decayRow
		if err := rows.Scan(&r.id, &r.importance, &r.lastAccess); err != nil {
			return 0, fmt.Errorf("scan row: %w", err)
		}
		eff := EffectiveImportance(r.importance, store.ParseTimestamp(r.lastAccess), now, cfg.DecayFactor)
		if eff < cfg.PruneFloor {
			candidates = append(candidates, r.id)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate rows: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	if table == "working_memory" {
		candidates, err = withoutSessionBacked(ctx, db, candidates)
		if err != nil {
			return 0, err
		}
		if len(candidates) == 0 {
			return 0, nil
		}
	}

	if cfg.DryRun {
		return len(candidates), nil
	}
	if err := deleteByID(ctx, db, table, candidates); err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// withoutSessionBacked filters out shared working rows whose content
// also lives in a session: pruning them would pull a fact out from
// under a session that still references it.
func withoutSessionBacked(ctx context.Context, db *sql.DB, ids []int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT w.id FROM working_memory w
JOIN session_memory s ON s.content_hash = w.content_hash AND s.superseded_by IS NULL
WHERE w.shared = 1`)
	if err != nil {
		return nil, fmt.Errorf("find session-backed rows: %w", err)
	}
	defer rows.Close()

	exempt := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session-backed row: %w", err)
		}
		exempt[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session-backed rows: %w", err)
	}

	kept := ids[:0]
	for _, id := range ids {
		if !exempt[id] {
			kept = append(kept, id)
		}
	}
	return kept, nil
}

// dupeRow is the projection deduplication groups on.
type dupeRow struct {
	id    int64
	hash  string
	owner string
}

// dedupe collapses live rows with identical normalized-content hashes,
// keeping the most important (most recent on a tie). When a collapsed
// group spanned multiple owners the survivor is marked shared so no
// agent loses sight of content it previously held.
func dedupe(ctx context.Context, db *sql.DB, table string, dryRun bool) (int, error) {
	q := fmt.Sprintf(`SELECT id, content_hash FROM %s WHERE superseded_by IS NULL ORDER BY content_hash, importance DESC, id DESC`, table)
	hasOwner := table == "working_memory"
	if hasOwner {
		q = `SELECT id, content_hash, owner_agent FROM working_memory WHERE superseded_by IS NULL ORDER BY content_hash, importance DESC, id DESC`
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("scan duplicates: %w", err)
	}
	defer rows.Close()

	var (
		removable []int64
		share     []int64
		keeper    dupeRow
		owners    map[string]bool
	)
	flush := func() {
		if keeper.id != 0 && hasOwner && len(owners) > 1 {
			share = append(share, keeper.id)
		}
	}
	for rows.Next() {
		var r dupeRow
		if hasOwner {
			err = rows.Scan(&r.id, &r.hash, &r.owner)
		} else {
			err = rows.Scan(&r.id, &r.hash)
		}
		if err != nil {
			return 0, fmt.Errorf("scan duplicate row: %w", err)
		}

		if r.hash != keeper.hash || keeper.id == 0 {
			flush()
			keeper = r
			owners = map[string]bool{r.owner: true}
			continue
		}
		owners[r.owner] = true
		removable = append(removable, r.id)
	}
	flush()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate duplicates: %w", err)
	}
	if len(removable) == 0 {
		return 0, nil
	}
	if dryRun {
		return len(removable), nil
	}

	if err := deleteByID(ctx, db, table, removable); err != nil {
		return 0, err
	}
	for _, id := range share {
		if _, err := db.ExecContext(ctx, `UPDATE working_memory SET shared = 1 WHERE id = ?`, id); err != nil {
			return len(removable), fmt.Errorf("share dedupe survivor: %w", err)
		}
	}
	return len(removable), nil
}

func deleteByID(ctx context.Context, db *sql.DB, table string, ids []int64) error {
	marks := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, table, marks)
	if _, err := db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	return nil
}

// recommendations surfaces follow-up work the passes could not do
// themselves.
func recommendations(ctx context.Context, db *sql.DB) ([]string, error) {
	var recs []string

	var backlog int
	today := time.Now().Format("2006-01-02")
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_log WHERE promoted = 0 AND gate_score >= 0.3 AND date < ?`, today,
	).Scan(&backlog)
	if err != nil {
		return nil, fmt.Errorf("count promotion backlog: %w", err)
	}
	if backlog > 0 {
		recs = append(recs, fmt.Sprintf("%d staged entries from earlier days await promotion", backlog))
	}

	var unindexed int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM semantic_meta WHERE indexed = 0 AND superseded_by IS NULL`,
	).Scan(&unindexed)
	if err != nil {
		return nil, fmt.Errorf("count unindexed rows: %w", err)
	}
	if unindexed > 0 {
		recs = append(recs, fmt.Sprintf("%d semantic rows are not in the vector index", unindexed))
	}

	return recs, nil
}
