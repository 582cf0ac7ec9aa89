// Package agent layers ownership over the working tier. Rows are
// private to their owner by default; sharing makes a row visible to
// every agent, and global rows (no owner) are visible to all. The
// visibility rule for every read path: a row is visible to an agent
// when it owns the row, the row is shared, or the row is global.
package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mnemo/pkg/store"
	"mnemo/pkg/tier"
)

// visibleTo is the partition visibility predicate, parameterized by
// one agent id.
const visibleTo = `(w.owner_agent = '' OR w.owner_agent = ? OR w.shared = 1)`

// Partition scopes working tier reads and writes to an agent identity.
type Partition struct {
	db      *sql.DB
	working *tier.Working
}

// Opts carries the optional knobs of a Partition.
type Opts struct {
	// Capacity bounds the underlying working tier.
	Capacity int
}

// New wraps db with a Partition.
func New(db *sql.DB, opts Opts) *Partition {
	return &Partition{db: db, working: tier.NewWorking(db, opts.Capacity)}
}

// Store writes a private row owned by agentID. Capacity eviction
// applies exactly as for unpartitioned inserts.
func (p *Partition) Store(ctx context.Context, agentID, content, kind string, importance int) (int64, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return 0, errors.New("agent id required")
	}
	return p.working.Insert(ctx, content, kind, tier.InsertOpts{
		Importance: importance,
		OwnerAgent: agentID,
	})
}

// ForAgent returns the live rows visible to agentID, most important
// first. A non-positive limit returns everything.
func (p *Partition) ForAgent(ctx context.Context, agentID string, limit int) ([]store.Record, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("agent id required")
	}

	q := `SELECT w.id, w.content, w.kind, w.tags, w.importance, w.owner_agent, w.shared, w.superseded_by, w.created_at, w.last_access
FROM working_memory w
WHERE w.superseded_by IS NULL AND ` + visibleTo + `
ORDER BY w.importance DESC, w.id DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return p.scanRecords(ctx, q, agentID)
}

// Query runs ranked full-text search over the rows visible to agentID.
// Matches get their last access refreshed and importance nudged up,
// same as unpartitioned search.
func (p *Partition) Query(ctx context.Context, agentID, search string, limit int) ([]store.Record, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, errors.New("agent id required")
	}
	if strings.TrimSpace(search) == "" {
		return nil, nil
	}
	match := store.SanitizeFTS5Query(search)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	q := `SELECT w.id, w.content, w.kind, w.tags, w.importance, w.owner_agent, w.shared, w.superseded_by, w.created_at, w.last_access
FROM working_fts
JOIN working_memory w ON w.id = working_fts.rowid
WHERE working_fts MATCH ? AND w.superseded_by IS NULL AND ` + visibleTo +
		fmt.Sprintf(" ORDER BY bm25(working_fts) LIMIT %d", limit)

	recs, err := p.scanRecords(ctx, q, match, agentID)
	if err != nil {
		return nil, err
	}
	if err := p.touch(ctx, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Share makes a row visible to every agent. Idempotent.
func (p *Partition) Share(ctx context.Context, id int64) error {
	return p.setShared(ctx, id, 1)
}

// Unshare returns a row to owner-only visibility. Idempotent.
func (p *Partition) Unshare(ctx context.Context, id int64) error {
	return p.setShared(ctx, id, 0)
}

func (p *Partition) setShared(ctx context.Context, id int64, shared int) error {
	res, err := p.db.ExecContext(ctx, `UPDATE working_memory SET shared = ? WHERE id = ?`, shared, id)
	if err != nil {
		return fmt.Errorf("update shared flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("shared flag rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("working memory %d not found", id)
	}
	return nil
}

// Info describes one agent's slice of the working tier.
type Info struct {
	AgentID      string `json:"agent_id"`
	EntryCount   int    `json:"entry_count"`
	LastActivity string `json:"last_activity"`
}

// Partitions lists every owning agent with its live row count, most
// recently active first. Global rows belong to no partition.
func (p *Partition) Partitions(ctx context.Context) ([]Info, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT owner_agent, COUNT(*), MAX(last_access)
FROM working_memory
WHERE owner_agent != '' AND superseded_by IS NULL
GROUP BY owner_agent
ORDER BY MAX(last_access) DESC, owner_agent`)
	if err != nil {
		return nil, fmt.Errorf("query partitions: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.AgentID, &info.EntryCount, &info.LastActivity); err != nil {
			return nil, fmt.Errorf("scan partition: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partitions: %w", err)
	}
	return infos, nil
}

// ClearAgent hard-deletes every row agentID owns, shared or not, live
// or superseded. Used on agent deregistration.
func (p *Partition) ClearAgent(ctx context.Context, agentID string) (int, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return 0, errors.New("agent id required")
	}

	res, err := p.db.ExecContext(ctx, `DELETE FROM working_memory WHERE owner_agent = ?`, agentID)
	if err != nil {
		return 0, fmt.Errorf("clear agent rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleared row count: %w", err)
	}
	return int(n), nil
}

func (p *Partition) scanRecords(ctx context.Context, q string, args ...any) ([]store.Record, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query partition rows: %w", err)
	}
	defer rows.Close()

	var recs []store.Record
	for rows.Next() {
		var (
			r       store.Record
			tags    sql.NullString
			shared  int
			superBy sql.NullInt64
		)
		err := rows.Scan(&r.ID, &r.Content, &r.Kind, &tags, &r.Importance, &r.OwnerAgent, &shared, &superBy, &r.CreatedAt, &r.LastAccess)
		if err != nil {
			return nil, fmt.Errorf("scan partition row: %w", err)
		}
		r.Tier = store.TierWorking
		r.Tags = tags.String
		r.Shared = shared != 0
		if superBy.Valid {
			r.SupersededBy = superBy.Int64
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partition rows: %w", err)
	}
	return recs, nil
}

func (p *Partition) touch(ctx context.Context, recs []store.Record) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]any, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	marks := strings.Repeat("?, ", len(ids)-1) + "?"
	q := fmt.Sprintf(`UPDATE working_memory SET last_access = datetime('now'), importance = MIN(10, importance + 1) WHERE id IN (%s)`, marks)
	if _, err := p.db.ExecContext(ctx, q, ids...); err != nil {
		return fmt.Errorf("touch partition rows: %w", err)
	}
	return nil
}
