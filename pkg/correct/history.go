package correct

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"mnemo/pkg/store"
)

// HistoryEntry is one superseded row together with its replacement,
// when the replacement is still live.
type HistoryEntry struct {
	Tier        store.Tier `json:"tier"`
	ID          int64      `json:"id"`
	Content     string     `json:"content"`
	Reason      string     `json:"reason,omitempty"`
	ReplacedBy  int64      `json:"replaced_by"`
	Replacement string     `json:"replacement,omitempty"`
	RecordedAt  string     `json:"recorded_at"`
	CorrectedAt string     `json:"corrected_at,omitempty"`
}

// Replacement rows live in the working tier, so every history query
// joins there. LEFT JOIN: a replacement can itself be evicted or
// pruned later, leaving the pointer dangling and Replacement empty.
var historyQueries = []struct {
	tier  store.Tier
	query string
}{
	{store.TierWorking, `SELECT o.id, o.content, o.supersede_reason, o.superseded_by, o.created_at, w.content, w.created_at
FROM working_memory o LEFT JOIN working_memory w ON w.id = o.superseded_by
WHERE o.superseded_by IS NOT NULL`},
	{store.TierSession, `SELECT o.id, o.content, o.supersede_reason, o.superseded_by, o.created_at, w.content, w.created_at
FROM session_memory o LEFT JOIN working_memory w ON w.id = o.superseded_by
WHERE o.superseded_by IS NOT NULL`},
	{store.TierSemantic, `SELECT o.id, o.content, o.supersede_reason, o.superseded_by, o.created_at, w.content, w.created_at
FROM semantic_meta o LEFT JOIN working_memory w ON w.id = o.superseded_by
WHERE o.superseded_by IS NOT NULL`},
	{store.TierStaging, `SELECT o.id, o.content, o.supersede_reason, o.superseded_by, o.created_at, w.content, w.created_at
FROM daily_log o LEFT JOIN working_memory w ON w.id = o.superseded_by
WHERE o.superseded_by IS NOT NULL`},
}

// SupersededHistory returns every superseded row across all tiers,
// newest correction first.
func SupersededHistory(ctx context.Context, db *sql.DB) ([]HistoryEntry, error) {
	var out []HistoryEntry
	for _, hq := range historyQueries {
		rows, err := db.QueryContext(ctx, hq.query)
		if err != nil {
			return nil, fmt.Errorf("query %s history: %w", hq.tier, err)
		}
		entries, err := scanHistory(rows, hq.tier)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return historyKey(out[i]) > historyKey(out[j])
	})
	return out, nil
}

func scanHistory(rows *sql.Rows, t store.Tier) ([]HistoryEntry, error) {
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e           HistoryEntry
			reason      sql.NullString
			replacement sql.NullString
			correctedAt sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Content, &reason, &e.ReplacedBy, &e.RecordedAt, &replacement, &correctedAt); err != nil {
			return nil, fmt.Errorf("scan %s history: %w", t, err)
		}
		e.Tier = t
		e.Reason = reason.String
		e.Replacement = replacement.String
		e.CorrectedAt = correctedAt.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s history: %w", t, err)
	}
	return out, nil
}

// historyKey orders entries by the moment of correction, falling back
// to the original's creation time when the replacement row is gone.
// SQLite datetime strings compare chronologically.
func historyKey(e HistoryEntry) string {
	if e.CorrectedAt != "" {
		return e.CorrectedAt
	}
	return e.RecordedAt
}
