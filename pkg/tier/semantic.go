package tier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mnemo/pkg/store"
)

// ErrNoIndex reports that the semantic tier has no vector index wired;
// callers fall back to full-text search.
var ErrNoIndex = errors.New("semantic index not configured")

// Semantic is the vector-searchable tier. The SQLite row is the
// authority for content and liveness; the index only ranks. With a nil
// index the tier degrades to metadata-only: inserts still persist,
// rows stay unindexed, and Search reports ErrNoIndex.
type Semantic struct {
	db  *sql.DB
	idx Index
}

// NewSemantic wraps db with an optional vector index.
func NewSemantic(db *sql.DB, idx Index) *Semantic {
	return &Semantic{db: db, idx: idx}
}

// Insert persists a metadata row and, when an index is wired, embeds
// the content. An indexing failure leaves the row unindexed rather
// than failing the write; Reindex picks it up later.
func (s *Semantic) Insert(ctx context.Context, content, kind, tags string, importance int) (int64, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, store.ErrEmptyContent
	}
	if kind == "" {
		kind = store.KindObservation
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO semantic_meta (content, content_hash, kind, tags, importance)
VALUES (?, ?, ?, ?, ?)`,
		content, store.ContentHash(content), kind, tags, store.ClampImportance(importance),
	)
	if err != nil {
		return 0, fmt.Errorf("insert semantic memory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("semantic memory id: %w", err)
	}

	if s.idx != nil {
		if err := s.idx.Add(ctx, id, content, map[string]string{"kind": kind}); err == nil {
			_, _ = s.db.ExecContext(ctx, `UPDATE semantic_meta SET indexed = 1 WHERE id = ?`, id)
		}
	}
	return id, nil
}

// SemanticHit pairs a live metadata row with its similarity score.
type SemanticHit struct {
	store.Record
	Similarity float64 `json:"similarity"`
}

// Search ranks live rows by similarity to query. Hits refresh the
// row's last access time.
func (s *Semantic) Search(ctx context.Context, query string, limit int) ([]SemanticHit, error) {
	if s.idx == nil {
		return nil, ErrNoIndex
	}
	if limit <= 0 {
		limit = 10
	}

	// Overfetch so that superseded or pruned rows dropped by the join
	// do not shrink the result set.
	hits, err := s.idx.Query(ctx, query, limit*2)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	byID := make(map[int64]store.Record, len(hits))
	ids := make([]any, 0, len(hits))
	placeholders := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
		placeholders = append(placeholders, "?")
	}

	q := fmt.Sprintf(`SELECT id, content, kind, tags, importance, superseded_by, created_at, last_access
FROM semantic_meta WHERE superseded_by IS NULL AND id IN (%s)`, strings.Join(placeholders, ", "))
	rows, err := s.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return nil, fmt.Errorf("query semantic memory: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r       store.Record
			tags    sql.NullString
			superBy sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Kind, &tags, &r.Importance, &superBy, &r.CreatedAt, &r.LastAccess); err != nil {
			return nil, fmt.Errorf("scan semantic memory: %w", err)
		}
		r.Tier = store.TierSemantic
		r.Tags = tags.String
		if superBy.Valid {
			r.SupersededBy = superBy.Int64
		}
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate semantic memory: %w", err)
	}

	results := make([]SemanticHit, 0, limit)
	touched := make([]any, 0, limit)
	for _, h := range hits {
		r, ok := byID[h.ID]
		if !ok {
			continue
		}
		results = append(results, SemanticHit{Record: r, Similarity: h.Similarity})
		touched = append(touched, h.ID)
		if len(results) >= limit {
			break
		}
	}

	if len(touched) > 0 {
		marks := strings.Repeat("?, ", len(touched)-1) + "?"
		_, _ = s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE semantic_meta SET last_access = datetime('now') WHERE id IN (%s)`, marks),
			touched...)
	}
	return results, nil
}

// Reindex embeds every unindexed live row and returns how many were
// indexed. Used by maintenance to repair writes that happened while
// the index was unavailable.
func (s *Semantic) Reindex(ctx context.Context) (int, error) {
	if s.idx == nil {
		return 0, ErrNoIndex
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, kind FROM semantic_meta WHERE indexed = 0 AND superseded_by IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("query unindexed semantic memory: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id      int64
		content string
		kind    string
	}
	var queue []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.content, &p.kind); err != nil {
			return 0, fmt.Errorf("scan unindexed semantic memory: %w", err)
		}
		queue = append(queue, p)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate unindexed semantic memory: %w", err)
	}

	indexed := 0
	for _, p := range queue {
		if err := s.idx.Add(ctx, p.id, p.content, map[string]string{"kind": p.kind}); err != nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE semantic_meta SET indexed = 1 WHERE id = ?`, p.id); err != nil {
			return indexed, fmt.Errorf("mark semantic memory indexed: %w", err)
		}
		indexed++
	}
	return indexed, nil
}

// Count returns the total number of semantic rows.
func (s *Semantic) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM semantic_meta`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count semantic memory: %w", err)
	}
	return n, nil
}
