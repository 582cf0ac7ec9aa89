package tier_test

import (
	"context"
	"database/sql"
	"testing"

	"mnemo/pkg/store"
	"mnemo/pkg/tier"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("bootstrap store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestTiers(t *testing.T, capacity int, idx tier.Index) (*tier.Tiers, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	return tier.New(db, capacity, idx), db
}
