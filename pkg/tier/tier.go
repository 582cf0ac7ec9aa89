// Package tier implements the long-lived memory tiers: working (hot,
// capacity-bounded), session (scoped to one conversation), semantic
// (vector-searchable), and knowledge (entities and relationships).
// Rows move here from the daily log via Promote; knowledge rows are
// written directly and are never a promotion target.
package tier

import (
	"context"
	"database/sql"
)

// Hit is one similarity match from the vector index, identified by
// semantic_meta row id.
type Hit struct {
	ID         int64
	Similarity float64
}

// Index is the seam between the semantic tier and whatever vector
// store backs it. A nil Index degrades the tier to metadata-only.
type Index interface {
	Add(ctx context.Context, id int64, content string, meta map[string]string) error
	Query(ctx context.Context, text string, limit int) ([]Hit, error)
}

// Tiers bundles the tier handles over one open store.
type Tiers struct {
	Working   *Working
	Session   *Session
	Semantic  *Semantic
	Knowledge *Knowledge
}

// New wires the tiers over db. capacity bounds the working tier
// (non-positive means the default); idx may be nil.
func New(db *sql.DB, capacity int, idx Index) *Tiers {
	return &Tiers{
		Working:   NewWorking(db, capacity),
		Session:   NewSession(db),
		Semantic:  NewSemantic(db, idx),
		Knowledge: NewKnowledge(db),
	}
}
