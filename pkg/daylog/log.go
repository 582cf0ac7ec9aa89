// Package daylog is the staging tier between the write gate and the
// long-lived memory tiers. Everything admitted by the gate lands here
// first, partitioned by calendar day; promotion later moves entries on
// and records where they went.
package daylog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mnemo/pkg/store"
)

// Log provides access to the daily_log table.
type Log struct {
	db *sql.DB
}

// New wraps an open memory store handle.
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Write appends an admitted entry under today's date and returns its id.
// The gate score is recorded as given; Write does not re-evaluate it.
func (l *Log) Write(ctx context.Context, content, kind string, gateScore float64) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, store.ErrEmptyContent
	}
	if kind == "" {
		kind = store.KindObservation
	}

	date := time.Now().Format("2006-01-02")
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO daily_log (date, content, kind, gate_score) VALUES (?, ?, ?, ?)`,
		date, content, kind, gateScore,
	)
	if err != nil {
		return 0, fmt.Errorf("insert daily log entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("daily log entry id: %w", err)
	}
	return id, nil
}

// ByDate returns all entries for one calendar day in insertion order.
// An empty date means today.
func (l *Log) ByDate(ctx context.Context, date string) ([]store.StagingEntry, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return l.query(ctx, "WHERE date = ? ORDER BY id", date)
}

// Unpromoted returns every entry that has not been promoted yet,
// oldest first, across all dates.
func (l *Log) Unpromoted(ctx context.Context) ([]store.StagingEntry, error) {
	return l.query(ctx, "WHERE promoted = 0 ORDER BY id")
}

// Bands maps a gate score to the tier a promoted entry should land in.
// Zero cutoffs fall back to the defaults.
type Bands struct {
	WorkingCutoff  float64
	SemanticCutoff float64
}

// DefaultBands returns the reference score cutoffs.
func DefaultBands() Bands {
	return Bands{WorkingCutoff: 0.75, SemanticCutoff: 0.5}
}

// Tier returns the destination tier for a gate score: high-confidence
// entries go to working, mid-band to semantic, the rest to session.
func (b Bands) Tier(score float64) store.Tier {
	working := b.WorkingCutoff
	if working <= 0 {
		working = DefaultBands().WorkingCutoff
	}
	semantic := b.SemanticCutoff
	if semantic <= 0 {
		semantic = DefaultBands().SemanticCutoff
	}
	switch {
	case score >= working:
		return store.TierWorking
	case score >= semantic:
		return store.TierSemantic
	default:
		return store.TierSession
	}
}

// Candidate is an unpromoted entry paired with the tier its score
// suggests.
type Candidate struct {
	store.StagingEntry
	SuggestedTier store.Tier `json:"suggested_tier"`
}

// PromotionCandidates returns unpromoted entries at or above minScore,
// highest score first, each with a suggested destination tier. A
// non-positive minScore falls back to 0.3.
func (l *Log) PromotionCandidates(ctx context.Context, minScore float64, bands Bands) ([]Candidate, error) {
	if minScore <= 0 {
		minScore = 0.3
	}

	entries, err := l.query(ctx,
		"WHERE promoted = 0 AND gate_score >= ? ORDER BY gate_score DESC, id ASC", minScore)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, Candidate{
			StagingEntry:  e,
			SuggestedTier: bands.Tier(e.GateScore),
		})
	}
	return candidates, nil
}

// MarkPromoted records that an entry was promoted to tier. Promotion
// is one-way: marking an already-promoted entry is a no-op and the
// recorded tier never changes.
func (l *Log) MarkPromoted(ctx context.Context, id int64, tier store.Tier) error {
	if !store.PromotionTier(tier) {
		return fmt.Errorf("tier %q is not a promotion target", tier)
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE daily_log SET promoted = 1, promoted_tier = ? WHERE id = ? AND promoted = 0`,
		string(tier), id,
	)
	if err != nil {
		return fmt.Errorf("mark promoted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark promoted: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: either the entry is already promoted (fine) or
	// the id does not exist (caller bug).
	var promoted int
	err = l.db.QueryRowContext(ctx, `SELECT promoted FROM daily_log WHERE id = ?`, id).Scan(&promoted)
	if err == sql.ErrNoRows {
		return fmt.Errorf("staging entry %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("mark promoted: %w", err)
	}
	return nil
}

// Dates returns the distinct calendar days present in the log, newest
// first, with per-day entry counts.
func (l *Log) Dates(ctx context.Context) ([]DayCount, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT date, COUNT(*) FROM daily_log GROUP BY date ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query log dates: %w", err)
	}
	defer rows.Close()

	var days []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Date, &d.Entries); err != nil {
			return nil, fmt.Errorf("scan log date: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log dates: %w", err)
	}
	return days, nil
}

// DayCount is one calendar day and how many entries it holds.
type DayCount struct {
	Date    string `json:"date"`
	Entries int    `json:"entries"`
}

func (l *Log) query(ctx context.Context, clause string, args ...any) ([]store.StagingEntry, error) {
	q := `SELECT id, date, content, kind, gate_score, promoted, promoted_tier, superseded_by, created_at
FROM daily_log ` + clause

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily log: %w", err)
	}
	defer rows.Close()

	var entries []store.StagingEntry
	for rows.Next() {
		var (
			e        store.StagingEntry
			promoted int
			tier     sql.NullString
			superBy  sql.NullInt64
		)
		err := rows.Scan(&e.ID, &e.Date, &e.Content, &e.Kind, &e.GateScore, &promoted, &tier, &superBy, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan daily log entry: %w", err)
		}
		e.Promoted = promoted != 0
		if tier.Valid {
			e.PromotedTier = store.Tier(tier.String)
		}
		if superBy.Valid {
			e.SupersededBy = superBy.Int64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily log: %w", err)
	}
	return entries, nil
}
