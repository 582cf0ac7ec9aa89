package vector

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"mnemo/pkg/tier"
)

const collectionName = "memories"

// Index stores semantic tier vectors in chromem-go. Document IDs are
// the semantic_meta row ids; the SQLite row stays the authority for
// content and liveness, so the index is only consulted for similarity.
type Index struct {
	col *chromem.Collection
}

// New creates an in-memory index, useful for tests and ephemeral runs.
func New() (*Index, error) {
	return newIndex(chromem.NewDB())
}

// NewPersistent creates or reopens an index persisted under dir.
func NewPersistent(dir string) (*Index, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return newIndex(db)
}

func newIndex(db *chromem.DB) (*Index, error) {
	col, err := db.GetOrCreateCollection(collectionName, nil, NewHashEmbedding(DefaultDims))
	if err != nil {
		return nil, fmt.Errorf("open vector collection: %w", err)
	}
	return &Index{col: col}, nil
}

// Add embeds content and stores it under the given row id. Re-adding
// an id replaces its document.
func (ix *Index) Add(ctx context.Context, id int64, content string, meta map[string]string) error {
	doc := chromem.Document{
		ID:       strconv.FormatInt(id, 10),
		Content:  content,
		Metadata: meta,
	}
	if err := ix.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("index document %d: %w", id, err)
	}
	return nil
}

// Query returns up to limit row ids ranked by cosine similarity to
// text. An empty index or empty query returns no hits.
func (ix *Index) Query(ctx context.Context, text string, limit int) ([]tier.Hit, error) {
	if len(tokenize(text)) == 0 {
		return nil, nil
	}
	count := ix.col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	// chromem rejects nResults larger than the collection.
	if limit > count {
		limit = count
	}

	results, err := ix.col.Query(ctx, text, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	hits := make([]tier.Hit, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			// Documents written by other tooling; skip rather than fail.
			continue
		}
		hits = append(hits, tier.Hit{ID: id, Similarity: float64(r.Similarity)})
	}
	return hits, nil
}
