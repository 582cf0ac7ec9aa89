package tier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mnemo/pkg/store"
)

// DefaultCapacity bounds the working tier when no capacity is configured.
const DefaultCapacity = 50

// Working is the hot tier: small, recently relevant, enforced to a
// fixed capacity at insert time.
type Working struct {
	db       *sql.DB
	capacity int
}

// NewWorking wraps db with the given capacity bound.
func NewWorking(db *sql.DB, capacity int) *Working {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Working{db: db, capacity: capacity}
}

// InsertOpts carries the optional fields of a working tier insert.
type InsertOpts struct {
	Tags       string
	Importance int
	OwnerAgent string
	Shared     bool
}

// Insert adds a row and then enforces capacity: if the tier overflows,
// the least important rows (oldest first within a tie) are evicted,
// which can include the row just inserted.
func (w *Working) Insert(ctx context.Context, content, kind string, opts InsertOpts) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, store.ErrEmptyContent
	}
	if kind == "" {
		kind = store.KindObservation
	}
	importance := store.ClampImportance(opts.Importance)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin working insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO working_memory (content, content_hash, kind, tags, importance, owner_agent, shared)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		content, store.ContentHash(content), kind, opts.Tags, importance, opts.OwnerAgent, boolToInt(opts.Shared),
	)
	if err != nil {
		return 0, fmt.Errorf("insert working memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("working memory id: %w", err)
	}

	if err := w.evictOverflow(ctx, tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit working insert: %w", err)
	}
	return id, nil
}

// evictOverflow deletes rows beyond capacity, lowest importance first
// and oldest id first within equal importance.
func (w *Working) evictOverflow(ctx context.Context, tx *sql.Tx) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM working_memory`).Scan(&count); err != nil {
		return fmt.Errorf("count working memory: %w", err)
	}
	overflow := count - w.capacity
	if overflow <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM working_memory WHERE id IN (
    SELECT id FROM working_memory ORDER BY importance ASC, id ASC LIMIT ?
)`, overflow)
	if err != nil {
		return fmt.Errorf("evict working overflow: %w", err)
	}
	return nil
}

// List returns live rows, most important first, newest first within a
// tie. A non-positive limit returns everything.
func (w *Working) List(ctx context.Context, limit int) ([]store.Record, error) {
	q := `SELECT id, content, kind, tags, importance, owner_agent, shared, superseded_by, created_at, last_access
FROM working_memory WHERE superseded_by IS NULL ORDER BY importance DESC, id DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return scanWorkingRows(ctx, w.db, q)
}

// Count returns the total number of rows, live and superseded.
func (w *Working) Count(ctx context.Context) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM working_memory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count working memory: %w", err)
	}
	return n, nil
}

// Get returns one row by id.
func (w *Working) Get(ctx context.Context, id int64) (store.Record, error) {
	recs, err := scanWorkingRows(ctx, w.db,
		`SELECT id, content, kind, tags, importance, owner_agent, shared, superseded_by, created_at, last_access
FROM working_memory WHERE id = ?`, id)
	if err != nil {
		return store.Record{}, err
	}
	if len(recs) == 0 {
		return store.Record{}, fmt.Errorf("working memory %d not found", id)
	}
	return recs[0], nil
}

func scanWorkingRows(ctx context.Context, db *sql.DB, q string, args ...any) ([]store.Record, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query working memory: %w", err)
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
			return nil, fmt.Errorf("scan working memory: %w", err)
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
		return nil, fmt.Errorf("iterate working memory: %w", err)
	}
	return recs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
