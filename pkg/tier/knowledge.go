package tier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mnemo/pkg/store"
)

// Knowledge is the curated tier: named entities and typed
// relationships between them. Rows are written directly, never
// promoted into, and never decay.
type Knowledge struct {
	db *sql.DB
}

// NewKnowledge wraps db.
func NewKnowledge(db *sql.DB) *Knowledge {
	return &Knowledge{db: db}
}

// AddEntity inserts or updates an entity. (name, entity_type) is the
// identity: re-adding refreshes the description and importance.
func (k *Knowledge) AddEntity(ctx context.Context, name, entityType, description string, importance int) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("entity name required")
	}
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		entityType = "concept"
	}

	_, err := k.db.ExecContext(ctx,
		`INSERT INTO entities (name, entity_type, description, importance)
VALUES (?, ?, ?, ?)
ON CONFLICT(name, entity_type) DO UPDATE SET description = excluded.description, importance = excluded.importance`,
		name, entityType, description, store.ClampImportance(importance),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert entity: %w", err)
	}

	// last_insert_rowid is unreliable after a conflict update, so look
	// the row up by its identity.
	var id int64
	err = k.db.QueryRowContext(ctx,
		`SELECT id FROM entities WHERE name = ? AND entity_type = ?`, name, entityType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("find entity: %w", err)
	}
	return id, nil
}

// AddRelationship links two entities by name. A non-positive weight
// defaults to 1.0. The entities are not required to exist yet.
func (k *Knowledge) AddRelationship(ctx context.Context, from, to, relation, detail string, weight float64) (int64, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	relation = strings.TrimSpace(relation)
	if from == "" || to == "" || relation == "" {
		return 0, fmt.Errorf("relationship requires from, to and relation")
	}
	if weight <= 0 {
		weight = 1.0
	}

	res, err := k.db.ExecContext(ctx,
		`INSERT INTO relationships (from_entity, to_entity, relation, context, weight)
VALUES (?, ?, ?, ?, ?)`,
		from, to, relation, detail, weight,
	)
	if err != nil {
		return 0, fmt.Errorf("insert relationship: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("relationship id: %w", err)
	}
	return id, nil
}

// Entities lists entities, most important first, optionally filtered
// by type.
func (k *Knowledge) Entities(ctx context.Context, entityType string, limit int) ([]store.Entity, error) {
	q := `SELECT id, name, entity_type, description, importance, created_at FROM entities`
	var args []any
	if entityType != "" {
		q += " WHERE entity_type = ?"
		args = append(args, entityType)
	}
	q += " ORDER BY importance DESC, name ASC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := k.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []store.Entity
	for rows.Next() {
		var (
			e    store.Entity
			desc sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.EntityType, &desc, &e.Importance, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Description = desc.String
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}

// Related returns every relationship touching the named entity, in
// either direction.
func (k *Knowledge) Related(ctx context.Context, name string) ([]store.Relationship, error) {
	rows, err := k.db.QueryContext(ctx,
		`SELECT id, from_entity, to_entity, relation, context, weight, created_at
FROM relationships WHERE from_entity = ? OR to_entity = ? ORDER BY weight DESC, id ASC`,
		name, name)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	var rels []store.Relationship
	for rows.Next() {
		var (
			r    store.Relationship
			rctx sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.FromEntity, &r.ToEntity, &r.Relation, &rctx, &r.Weight, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Context = rctx.String
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return rels, nil
}

// Counts returns the entity and relationship totals.
func (k *Knowledge) Counts(ctx context.Context) (entities, relationships int, err error) {
	if err := k.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&entities); err != nil {
		return 0, 0, fmt.Errorf("count entities: %w", err)
	}
	if err := k.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&relationships); err != nil {
		return 0, 0, fmt.Errorf("count relationships: %w", err)
	}
	return entities, relationships, nil
}
