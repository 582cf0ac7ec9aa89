package tier_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mnemo/pkg/store"
	"mnemo/pkg/tier"
	"mnemo/pkg/vector"
)

// downIndex simulates an unreachable vector backend.
type downIndex struct{}

func (downIndex) Add(context.Context, int64, string, map[string]string) error {
	return fmt.Errorf("index offline")
}

func (downIndex) Query(context.Context, string, int) ([]tier.Hit, error) {
	return nil, fmt.Errorf("index offline")
}

func newVectorIndex(t *testing.T) *vector.Index {
	t.Helper()
	idx, err := vector.New()
	if err != nil {
		t.Fatalf("new vector index: %v", err)
	}
	return idx
}

func TestSemanticInsertAndSearch(t *testing.T) {
	tiers, _ := newTestTiers(t, 0, newVectorIndex(t))
	ctx := context.Background()

	deployID, err := tiers.Semantic.Insert(ctx, "the deploy endpoint is https://api.internal", store.KindObservation, "", 6)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := tiers.Semantic.Insert(ctx, "cats are fluffy animals that sleep all day", store.KindObservation, "", 5); err != nil {
		t.Fatalf("insert: %v", err)
	}

	hits, err := tiers.Semantic.Search(ctx, "deploy endpoint url", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if hits[0].ID != deployID {
		t.Errorf("top hit = %d (%q), want deploy row %d", hits[0].ID, hits[0].Content, deployID)
	}
	if hits[0].Similarity <= 0 {
		t.Errorf("similarity = %v, want positive", hits[0].Similarity)
	}
	if hits[0].Tier != store.TierSemantic {
		t.Errorf("tier = %s, want semantic", hits[0].Tier)
	}
}

func TestSemanticNilIndexDegrades(t *testing.T) {
	tiers, db := newTestTiers(t, 0, nil)
	ctx := context.Background()

	id, err := tiers.Semantic.Insert(ctx, "written while no index is wired", "", "", 5)
	if err != nil {
		t.Fatalf("insert with nil index: %v", err)
	}

	var indexed int
	if err := db.QueryRow(`SELECT indexed FROM semantic_meta WHERE id = ?`, id).Scan(&indexed); err != nil {
		t.Fatalf("read indexed flag: %v", err)
	}
	if indexed != 0 {
		t.Error("row marked indexed without an index")
	}

	if _, err := tiers.Semantic.Search(ctx, "anything", 5); !errors.Is(err, tier.ErrNoIndex) {
		t.Errorf("search error = %v, want ErrNoIndex", err)
	}
}

func TestSemanticIndexFailureLeavesRowUnindexed(t *testing.T) {
	tiers, db := newTestTiers(t, 0, downIndex{})
	ctx := context.Background()

	id, err := tiers.Semantic.Insert(ctx, "written while the index is down", "", "", 5)
	if err != nil {
		t.Fatalf("insert with down index: %v", err)
	}

	var indexed int
	if err := db.QueryRow(`SELECT indexed FROM semantic_meta WHERE id = ?`, id).Scan(&indexed); err != nil {
		t.Fatalf("read indexed flag: %v", err)
	}
	if indexed != 0 {
		t.Error("row marked indexed despite Add failure")
	}
}

func TestSemanticReindex(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Rows written while the index was down stay unindexed.
	broken := tier.NewSemantic(db, downIndex{})
	for _, content := range []string{"first stranded row", "second stranded row"} {
		if _, err := broken.Insert(ctx, content, "", "", 5); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	// A working index over the same store picks them up.
	repaired := tier.NewSemantic(db, newVectorIndex(t))
	n, err := repaired.Reindex(ctx)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if n != 2 {
		t.Errorf("reindexed %d rows, want 2", n)
	}

	var pending int
	if err := db.QueryRow(`SELECT COUNT(*) FROM semantic_meta WHERE indexed = 0`).Scan(&pending); err != nil {
		t.Fatalf("count unindexed: %v", err)
	}
	if pending != 0 {
		t.Errorf("%d rows still unindexed", pending)
	}

	hits, err := repaired.Search(ctx, "stranded row", 5)
	if err != nil {
		t.Fatalf("search after reindex: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits after reindex, want 2", len(hits))
	}
}

func TestSemanticSearchSkipsSupersededRows(t *testing.T) {
	tiers, db := newTestTiers(t, 0, newVectorIndex(t))
	ctx := context.Background()

	oldID, err := tiers.Semantic.Insert(ctx, "the migration deadline is April 1", "", "", 5)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	newID, err := tiers.Semantic.Insert(ctx, "the migration deadline is March 15", "", "", 5)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.Exec(`UPDATE semantic_meta SET superseded_by = ? WHERE id = ?`, newID, oldID); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	hits, err := tiers.Semantic.Search(ctx, "migration deadline", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, h := range hits {
		if h.ID == oldID {
			t.Error("superseded row returned as a live hit")
		}
	}
	if len(hits) != 1 || hits[0].ID != newID {
		t.Errorf("hits = %+v, want only replacement row %d", hits, newID)
	}
}
