package tier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mnemo/pkg/store"
)

// Session is the per-conversation tier. Inserts are idempotent on
// (session id, normalized content): replaying the same content into
// the same session returns the existing row instead of duplicating it.
type Session struct {
	db *sql.DB
}

// NewSession wraps db.
func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

// Insert adds content to a session. The returned bool reports whether
// a new row was created; false means the content was already present
// and the existing row id is returned.
func (s *Session) Insert(ctx context.Context, sessionID, content, kind string, importance int) (int64, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, false, fmt.Errorf("session id required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, false, store.ErrEmptyContent
	}
	if kind == "" {
		kind = store.KindObservation
	}
	hash := store.ContentHash(content)

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO session_memory (session_id, content, content_hash, kind, importance)
VALUES (?, ?, ?, ?, ?)`,
		sessionID, content, hash, kind, store.ClampImportance(importance),
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert session memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert session memory: %w", err)
	}
	if n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("session memory id: %w", err)
		}
		return id, true, nil
	}

	// Duplicate: hand back the row that absorbed this insert.
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM session_memory WHERE session_id = ? AND content_hash = ?`,
		sessionID, hash,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("find existing session memory: %w", err)
	}
	return id, false, nil
}

// BySession returns a session's live rows in insertion order.
func (s *Session) BySession(ctx context.Context, sessionID string, limit int) ([]store.Record, error) {
	q := `SELECT id, session_id, content, kind, importance, superseded_by, created_at, last_access
FROM session_memory WHERE session_id = ? AND superseded_by IS NULL ORDER BY id`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session memory: %w", err)
	}
	defer rows.Close()

	var recs []store.Record
	for rows.Next() {
		r, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session memory: %w", err)
	}
	return recs, nil
}

// Sessions returns the distinct session ids present, newest first.
func (s *Session) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM session_memory GROUP BY session_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return ids, nil
}

// Count returns the total number of session rows.
func (s *Session) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_memory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count session memory: %w", err)
	}
	return n, nil
}

func scanSessionRow(rows *sql.Rows) (store.Record, error) {
	var (
		r       store.Record
		superBy sql.NullInt64
	)
	err := rows.Scan(&r.ID, &r.SessionID, &r.Content, &r.Kind, &r.Importance, &superBy, &r.CreatedAt, &r.LastAccess)
	if err != nil {
		return store.Record{}, fmt.Errorf("scan session memory: %w", err)
	}
	r.Tier = store.TierSession
	if superBy.Valid {
		r.SupersededBy = superBy.Int64
	}
	return r, nil
}
