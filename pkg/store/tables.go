package store

import "time"

// StagingEntry represents a row in the daily_log SQLite table.
// Immutable after insert except for the promotion fields, which move
// one way: once promoted, never un-promoted.
type StagingEntry struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	Content      string  `json:"content"`
	Kind         string  `json:"kind"`
	GateScore    float64 `json:"gate_score"`
	Promoted     bool    `json:"promoted"`
	PromotedTier Tier    `json:"promoted_tier,omitempty"`
	SupersededBy int64   `json:"superseded_by,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// Record represents a row in one of the tier tables (working_memory,
// session_memory, semantic_meta). Tier discriminates which table the
// row came from; id spaces are independent across tiers.
type Record struct {
	ID           int64  `json:"id"`
	Tier         Tier   `json:"tier"`
	SessionID    string `json:"session_id,omitempty"`
	Content      string `json:"content"`
	Kind         string `json:"kind"`
	Tags         string `json:"tags,omitempty"`
	Importance   int    `json:"importance"`
	OwnerAgent   string `json:"owner_agent,omitempty"`
	Shared       bool   `json:"shared,omitempty"`
	SupersededBy int64  `json:"superseded_by,omitempty"`
	CreatedAt    string `json:"created_at"`
	LastAccess   string `json:"last_access"`
}

// Superseded reports whether the record has been replaced by a
// correction. Superseded rows are retained for audit, never returned
// as live results.
func (r Record) Superseded() bool {
	return r.SupersededBy != 0
}

// Entity represents a row in the entities SQLite table (knowledge tier).
// Unique on (name, entity_type); re-adding an entity updates it.
type Entity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EntityType  string `json:"entity_type"`
	Description string `json:"description,omitempty"`
	Importance  int    `json:"importance"`
	CreatedAt   string `json:"created_at"`
}

// Relationship represents a row in the relationships SQLite table.
// Links two entities by name with a typed relation and optional context.
type Relationship struct {
	ID         int64   `json:"id"`
	FromEntity string  `json:"from_entity"`
	ToEntity   string  `json:"to_entity"`
	Relation   string  `json:"relation"`
	Context    string  `json:"context,omitempty"`
	Weight     float64 `json:"weight"`
	CreatedAt  string  `json:"created_at"`
}

// ParseTimestamp parses a SQLite datetime('now') string, falling back
// to RFC3339 for rows written by other tooling. Returns the zero time
// on failure.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}
