package tier

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"mnemo/pkg/store"
)

// SearchOpts filters a full-text search across the text tiers.
type SearchOpts struct {
	// Kind restricts results to one record kind.
	Kind string

	// Agent scopes working tier visibility: rows owned by this agent,
	// shared rows, and global rows. Empty sees everything.
	Agent string

	// Limit caps the merged result count (default 10).
	Limit int
}

// SearchResult is one full-text match. Rank is the FTS5 bm25 score;
// lower means more relevant.
type SearchResult struct {
	store.Record
	Rank float64 `json:"rank"`
}

// SearchText runs ranked full-text search over the working and session
// tiers and merges the results. Matched rows get their last access
// refreshed and importance nudged up, which is what keeps retrieved
// memories alive through decay.
func (t *Tiers) SearchText(ctx context.Context, query string, opts SearchOpts) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	match := store.SanitizeFTS5Query(query)
	if match == "" {
		return nil, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	working, err := t.searchWorking(ctx, match, opts, limit)
	if err != nil {
		return nil, err
	}
	session, err := t.searchSession(ctx, match, opts, limit)
	if err != nil {
		return nil, err
	}

	merged := append(working, session...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Rank < merged[j].Rank })
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if err := t.touchResults(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (t *Tiers) searchWorking(ctx context.Context, match string, opts SearchOpts, limit int) ([]SearchResult, error) {
	q := `SELECT w.id, w.content, w.kind, w.tags, w.importance, w.owner_agent, w.shared, w.created_at, w.last_access, bm25(working_fts) AS rank
FROM working_fts
JOIN working_memory w ON w.id = working_fts.rowid
WHERE working_fts MATCH ? AND w.superseded_by IS NULL`
	args := []any{match}

	if opts.Kind != "" {
		q += " AND w.kind = ?"
		args = append(args, opts.Kind)
	}
	if opts.Agent != "" {
		q += " AND (w.owner_agent = '' OR w.owner_agent = ? OR w.shared = 1)"
		args = append(args, opts.Agent)
	}
	q += fmt.Sprintf(" ORDER BY rank LIMIT %d", limit)

	rows, err := t.Working.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search working memory: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r      SearchResult
			tags   sql.NullString
			shared int
		)
		err := rows.Scan(&r.ID, &r.Content, &r.Kind, &tags, &r.Importance, &r.OwnerAgent, &shared, &r.CreatedAt, &r.LastAccess, &r.Rank)
		if err != nil {
			return nil, fmt.Errorf("scan working search result: %w", err)
		}
		r.Tier = store.TierWorking
		r.Tags = tags.String
		r.Shared = shared != 0
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate working search: %w", err)
	}
	return results, nil
}

func (t *Tiers) searchSession(ctx context.Context, match string, opts SearchOpts, limit int) ([]SearchResult, error) {
	q := `SELECT s.id, s.session_id, s.content, s.kind, s.importance, s.created_at, s.last_access, bm25(session_fts) AS rank
FROM session_fts
JOIN session_memory s ON s.id = session_fts.rowid
WHERE session_fts MATCH ? AND s.superseded_by IS NULL`
	args := []any{match}

	if opts.Kind != "" {
		q += " AND s.kind = ?"
		args = append(args, opts.Kind)
	}
	q += fmt.Sprintf(" ORDER BY rank LIMIT %d", limit)

	rows, err := t.Session.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search session memory: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		err := rows.Scan(&r.ID, &r.SessionID, &r.Content, &r.Kind, &r.Importance, &r.CreatedAt, &r.LastAccess, &r.Rank)
		if err != nil {
			return nil, fmt.Errorf("scan session search result: %w", err)
		}
		r.Tier = store.TierSession
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session search: %w", err)
	}
	return results, nil
}

// touchResults refreshes last access and bumps importance (capped at
// 10) for every returned row, per tier.
func (t *Tiers) touchResults(ctx context.Context, results []SearchResult) error {
	byTier := map[store.Tier][]any{}
	for _, r := range results {
		byTier[r.Tier] = append(byTier[r.Tier], r.ID)
	}
	tables := map[store.Tier]string{
		store.TierWorking: "working_memory",
		store.TierSession: "session_memory",
	}
	for tierName, ids := range byTier {
		table, ok := tables[tierName]
		if !ok {
			continue
		}
		marks := strings.Repeat("?, ", len(ids)-1) + "?"
		q := fmt.Sprintf(`UPDATE %s SET last_access = datetime('now'), importance = MIN(10, importance + 1) WHERE id IN (%s)`, table, marks)
		if _, err := t.Working.db.ExecContext(ctx, q, ids...); err != nil {
			return fmt.Errorf("touch %s results: %w", table, err)
		}
	}
	return nil
}
