// Package correct propagates corrections across the memory tiers.
// A correction supersedes matching rows in place, inserts the
// corrected statement into the working tier, and leaves an audit
// entry in the daily log; history is added to, never erased.
package correct

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mnemo/pkg/daylog"
	"mnemo/pkg/store"
	"mnemo/pkg/tier"
)

// Result summarizes one propagated correction.
type Result struct {
	OriginalFound    bool         `json:"original_found"`
	TiersUpdated     []store.Tier `json:"tiers_updated,omitempty"`
	SupersededCount  int          `json:"superseded_count"`
	CorrectedEntryID int64        `json:"corrected_entry_id"`
}

// Opts carries the optional knobs of a Propagator.
type Opts struct {
	// Capacity bounds the working tier the corrected row lands in.
	Capacity int

	// Similarity is the fuzzy-match threshold in (0,1]; zero means
	// DefaultSimilarity.
	Similarity float64
}

// Propagator finds rows matching an outdated statement and supersedes
// them with the corrected one.
type Propagator struct {
	db        *sql.DB
	working   *tier.Working
	log       *daylog.Log
	threshold float64
}

// New wraps db with a Propagator.
func New(db *sql.DB, opts Opts) *Propagator {
	return &Propagator{
		db:        db,
		working:   tier.NewWorking(db, opts.Capacity),
		log:       daylog.New(db),
		threshold: opts.Similarity,
	}
}

// scanTargets are the tiers a correction sweeps, in reporting order.
// Daily-log audit entries from earlier corrections are excluded: they
// quote the statements they corrected and would match their own
// fragment on replay.
var scanTargets = []struct {
	tier  store.Tier
	table string
	query string
}{
	{store.TierWorking, "working_memory", `SELECT id, content, importance FROM working_memory WHERE superseded_by IS NULL`},
	{store.TierSession, "session_memory", `SELECT id, content, importance FROM session_memory WHERE superseded_by IS NULL`},
	{store.TierSemantic, "semantic_meta", `SELECT id, content, importance FROM semantic_meta WHERE superseded_by IS NULL`},
	{store.TierStaging, "daily_log", `SELECT id, content, 0 FROM daily_log WHERE superseded_by IS NULL AND kind != 'correction'`},
}

// Propagate supersedes every live row matching oldFragment, inserts
// newContent into the working tier, and writes a daily-log audit
// entry. The insert and the audit happen even when nothing matched: a
// correction is never silently dropped. A tier whose scan or update
// fails is left out of TiersUpdated while the rest proceed.
func (p *Propagator) Propagate(ctx context.Context, oldFragment, newContent, reason string) (Result, error) {
	var res Result
	oldFragment = strings.TrimSpace(oldFragment)
	newContent = strings.TrimSpace(newContent)
	if oldFragment == "" {
		return res, errors.New("old content fragment required")
	}
	if newContent == "" {
		return res, store.ErrEmptyContent
	}

	m := newMatcher(oldFragment, p.threshold)
	found := p.scan(ctx, m)
	for _, f := range found {
		if len(f.ids) > 0 {
			res.OriginalFound = true
		}
	}

	newID, insertErr := p.insertCorrected(ctx, newContent, found)
	res.CorrectedEntryID = newID

	if insertErr == nil {
		for _, f := range found {
			if len(f.ids) == 0 {
				continue
			}
			n, err := p.supersede(ctx, f.table, f.ids, newID, reason)
			if err != nil || n == 0 {
				continue
			}
			res.TiersUpdated = append(res.TiersUpdated, f.tier)
			res.SupersededCount += n
		}
	}

	// The audit entry is attempted even when the insert failed:
	// correction attempts are themselves memorable events.
	audit := fmt.Sprintf("correction: %q superseded by %q", oldFragment, newContent)
	if reason != "" {
		audit += fmt.Sprintf(" (%s)", reason)
	}
	_, auditErr := p.log.Write(ctx, audit, store.KindCorrection, 0)

	if insertErr != nil {
		return res, fmt.Errorf("insert corrected entry: %w", insertErr)
	}
	if auditErr != nil {
		return res, fmt.Errorf("write correction audit: %w", auditErr)
	}
	return res, nil
}

type tierMatches struct {
	tier          store.Tier
	table         string
	ids           []int64
	maxImportance int
}

// scan walks every tier for live rows matching m. A tier whose scan
// fails is dropped so the remaining tiers still propagate.
func (p *Propagator) scan(ctx context.Context, m matcher) []tierMatches {
	out := make([]tierMatches, 0, len(scanTargets))
	for _, target := range scanTargets {
		ids, maxImp, err := p.scanOne(ctx, target.query, m)
		if err != nil {
			continue
		}
		out = append(out, tierMatches{tier: target.tier, table: target.table, ids: ids, maxImportance: maxImp})
	}
	return out
}

func (p *Propagator) scanOne(ctx context.Context, q string, m matcher) ([]int64, int, error) {
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ids []int64
	maxImp := 0
	for rows.Next() {
		var (
			id         int64
			content    string
			importance int
		)
		if err := rows.Scan(&id, &content, &importance); err != nil {
			return nil, 0, err
		}
		if !m.matches(content) {
			continue
		}
		ids = append(ids, id)
		if importance > maxImp {
			maxImp = importance
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return ids, maxImp, nil
}

// insertCorrected writes the replacement row. It inherits the highest
// importance seen among the rows it replaces, so correcting a
// prominent fact does not demote it; with no match the working tier's
// default applies.
func (p *Propagator) insertCorrected(ctx context.Context, newContent string, found []tierMatches) (int64, error) {
	importance := 0
	for _, f := range found {
		if f.maxImportance > importance {
			importance = f.maxImportance
		}
	}
	return p.working.Insert(ctx, newContent, "", tier.InsertOpts{Importance: importance})
}

func (p *Propagator) supersede(ctx context.Context, table string, ids []int64, newID int64, reason string) (int, error) {
	marks := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, 0, len(ids)+2)
	args = append(args, newID, reason)
	for _, id := range ids {
		args = append(args, id)
	}
	q := fmt.Sprintf(`UPDATE %s SET superseded_by = ?, supersede_reason = ? WHERE id IN (%s)`, table, marks)
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// RunPath propagates a correction against the store file at path.
// Returns ErrNotInitialized when the store does not exist yet.
func RunPath(ctx context.Context, path, oldFragment, newContent, reason string) (Result, error) {
	if !store.Exists(path) {
		return Result{}, fmt.Errorf("%s: %w", path, store.ErrNotInitialized)
	}
	db, err := store.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()
	return New(db, Opts{}).Propagate(ctx, oldFragment, newContent, reason)
}
