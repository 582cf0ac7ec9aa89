package agent_test

import (
	"context"
	"database/sql"
	"testing"

	"mnemo/pkg/agent"
	"mnemo/pkg/store"
	"mnemo/pkg/tier"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("bootstrap store: %v", err)
	}
	return db
}

func containsID(recs []store.Record, id int64) bool {
	for _, r := range recs {
		if r.ID == id {
			return true
		}
	}
	return false
}

func TestStoreIsPrivateByDefault(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	id, err := p.Store(ctx, "agent-a", "agent-a's private observation", "", 6)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	own, err := p.ForAgent(ctx, "agent-a", 0)
	if err != nil {
		t.Fatalf("ForAgent(agent-a): %v", err)
	}
	if !containsID(own, id) {
		t.Error("owner cannot see its own row")
	}

	other, err := p.ForAgent(ctx, "agent-b", 0)
	if err != nil {
		t.Fatalf("ForAgent(agent-b): %v", err)
	}
	if containsID(other, id) {
		t.Error("private row visible to another agent")
	}
}

func TestShareUnshareCycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	id, err := p.Store(ctx, "agent-a", "a fact worth sharing with the team", "", 5)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := p.Share(ctx, id); err != nil {
		t.Fatalf("Share: %v", err)
	}
	recs, err := p.ForAgent(ctx, "agent-b", 0)
	if err != nil {
		t.Fatalf("ForAgent: %v", err)
	}
	if !containsID(recs, id) {
		t.Error("shared row not visible to another agent")
	}

	if err := p.Unshare(ctx, id); err != nil {
		t.Fatalf("Unshare: %v", err)
	}
	recs, err = p.ForAgent(ctx, "agent-b", 0)
	if err != nil {
		t.Fatalf("ForAgent after unshare: %v", err)
	}
	if containsID(recs, id) {
		t.Error("unshared row still visible to another agent")
	}

	// The owner sees the row through every toggle.
	own, err := p.ForAgent(ctx, "agent-a", 0)
	if err != nil {
		t.Fatalf("ForAgent(owner): %v", err)
	}
	if !containsID(own, id) {
		t.Error("owner lost sight of its row after unshare")
	}
}

func TestShareIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	id, err := p.Store(ctx, "agent-a", "toggled more than once", "", 5)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.Share(ctx, id); err != nil {
			t.Fatalf("Share #%d: %v", i+1, err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := p.Unshare(ctx, id); err != nil {
			t.Fatalf("Unshare #%d: %v", i+1, err)
		}
	}

	recs, err := p.ForAgent(ctx, "agent-b", 0)
	if err != nil {
		t.Fatalf("ForAgent: %v", err)
	}
	if containsID(recs, id) {
		t.Error("row visible after final unshare")
	}
}

func TestShareUnknownID(t *testing.T) {
	p := agent.New(openTestDB(t), agent.Opts{})
	if err := p.Share(context.Background(), 12345); err == nil {
		t.Error("sharing a missing row should fail")
	}
}

func TestGlobalRowsVisibleToAll(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	id, err := tier.NewWorking(db, 0).Insert(ctx, "a global fact nobody owns", "", tier.InsertOpts{})
	if err != nil {
		t.Fatalf("insert global row: %v", err)
	}

	for _, agentID := range []string{"agent-a", "agent-b"} {
		recs, err := p.ForAgent(ctx, agentID, 0)
		if err != nil {
			t.Fatalf("ForAgent(%s): %v", agentID, err)
		}
		if !containsID(recs, id) {
			t.Errorf("global row not visible to %s", agentID)
		}
	}
}

func TestQueryScopedToAgent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	private, err := p.Store(ctx, "agent-a", "redis cache endpoint is redis.internal:6379", "", 6)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	shared, err := p.Store(ctx, "agent-a", "redis cluster failover drills run monthly", "", 6)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := p.Share(ctx, shared); err != nil {
		t.Fatalf("Share: %v", err)
	}

	recs, err := p.Query(ctx, "agent-b", "redis", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if containsID(recs, private) {
		t.Error("query leaked a private row across the partition")
	}
	if !containsID(recs, shared) {
		t.Error("query missed a shared row")
	}

	own, err := p.Query(ctx, "agent-a", "redis", 10)
	if err != nil {
		t.Fatalf("Query(owner): %v", err)
	}
	if len(own) != 2 {
		t.Errorf("owner query results = %d, want 2", len(own))
	}
}

func TestQueryBumpsImportance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	id, err := p.Store(ctx, "agent-a", "grafana dashboards live under ops/grafana", "", 4)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, err := p.Query(ctx, "agent-a", "grafana", 10); err != nil {
		t.Fatalf("Query: %v", err)
	}

	recs, err := p.ForAgent(ctx, "agent-a", 0)
	if err != nil {
		t.Fatalf("ForAgent: %v", err)
	}
	if !containsID(recs, id) {
		t.Fatal("row missing after query")
	}
	for _, r := range recs {
		if r.ID == id && r.Importance != 5 {
			t.Errorf("importance after query hit = %d, want 5", r.Importance)
		}
	}
}

func TestQueryEmptySearch(t *testing.T) {
	p := agent.New(openTestDB(t), agent.Opts{})
	recs, err := p.Query(context.Background(), "agent-a", "   ", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if recs != nil {
		t.Errorf("blank search returned %v", recs)
	}
}

func TestPartitions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	if _, err := p.Store(ctx, "agent-a", "first fact owned by agent-a", "", 5); err != nil {
		t.Fatalf("Store: %v", err)
	}
	superseded, err := p.Store(ctx, "agent-a", "second fact owned by agent-a", "", 5)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := p.Store(ctx, "agent-b", "a fact owned by agent-b", "", 5); err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Global rows belong to no partition; superseded rows are not live.
	if _, err := tier.NewWorking(db, 0).Insert(ctx, "a global fact", "", tier.InsertOpts{}); err != nil {
		t.Fatalf("insert global row: %v", err)
	}
	if _, err := db.Exec(`UPDATE working_memory SET superseded_by = 999 WHERE id = ?`, superseded); err != nil {
		t.Fatalf("supersede row: %v", err)
	}

	infos, err := p.Partitions(ctx)
	if err != nil {
		t.Fatalf("Partitions: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("partitions = %d, want 2", len(infos))
	}

	counts := map[string]int{}
	for _, info := range infos {
		counts[info.AgentID] = info.EntryCount
		if info.LastActivity == "" {
			t.Errorf("partition %s has no last activity", info.AgentID)
		}
	}
	if counts["agent-a"] != 1 {
		t.Errorf("agent-a live count = %d, want 1", counts["agent-a"])
	}
	if counts["agent-b"] != 1 {
		t.Errorf("agent-b live count = %d, want 1", counts["agent-b"])
	}
}

func TestClearAgent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := agent.New(db, agent.Opts{})

	if _, err := p.Store(ctx, "agent-a", "agent-a private row", "", 5); err != nil {
		t.Fatalf("Store: %v", err)
	}
	sharedID, err := p.Store(ctx, "agent-a", "agent-a shared row", "", 5)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := p.Share(ctx, sharedID); err != nil {
		t.Fatalf("Share: %v", err)
	}
	keep, err := p.Store(ctx, "agent-b", "agent-b keeps this row", "", 5)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	n, err := p.ClearAgent(ctx, "agent-a")
	if err != nil {
		t.Fatalf("ClearAgent: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2 (shared rows go too)", n)
	}

	recs, err := p.ForAgent(ctx, "agent-b", 0)
	if err != nil {
		t.Fatalf("ForAgent: %v", err)
	}
	if !containsID(recs, keep) {
		t.Error("another agent's row was cleared")
	}
	if containsID(recs, sharedID) {
		t.Error("cleared shared row still visible")
	}
}

func TestValidation(t *testing.T) {
	p := agent.New(openTestDB(t), agent.Opts{})
	ctx := context.Background()

	if _, err := p.Store(ctx, "  ", "content without an owner", "", 5); err == nil {
		t.Error("Store accepted a blank agent id")
	}
	if _, err := p.ForAgent(ctx, "", 0); err == nil {
		t.Error("ForAgent accepted a blank agent id")
	}
	if _, err := p.Query(ctx, "", "search", 10); err == nil {
		t.Error("Query accepted a blank agent id")
	}
	if _, err := p.ClearAgent(ctx, ""); err == nil {
		t.Error("ClearAgent accepted a blank agent id")
	}
}
