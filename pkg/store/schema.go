package store

// SchemaDDL defines the SQLite schema for the mnemo memory store.
// Tables: daily_log, working_memory, session_memory, semantic_meta,
// entities, relationships, plus FTS5 indexes over the text tiers.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Staging tier: gate-scored candidates partitioned by calendar day
CREATE TABLE IF NOT EXISTS daily_log (
    id INTEGER PRIMARY KEY,
    date TEXT NOT NULL,
    content TEXT NOT NULL,
    kind TEXT NOT NULL,
    gate_score REAL NOT NULL DEFAULT 0,
    promoted INTEGER NOT NULL DEFAULT 0,
    promoted_tier TEXT,
    superseded_by INTEGER,
    supersede_reason TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS daily_log_date ON daily_log(date, id);

-- Working tier: small, hot, bounded by capacity at insert time
CREATE TABLE IF NOT EXISTS working_memory (
    id INTEGER PRIMARY KEY,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    kind TEXT NOT NULL,
    tags TEXT,
    importance INTEGER NOT NULL DEFAULT 5,
    owner_agent TEXT NOT NULL DEFAULT '',
    shared INTEGER NOT NULL DEFAULT 0,
    superseded_by INTEGER,
    supersede_reason TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    last_access TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Session tier: per-session rows, idempotent on (session_id, content)
CREATE TABLE IF NOT EXISTS session_memory (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    kind TEXT NOT NULL,
    importance INTEGER NOT NULL DEFAULT 5,
    superseded_by INTEGER,
    supersede_reason TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    last_access TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(session_id, content_hash)
);

-- Semantic tier: local metadata for content sent to the vector index
CREATE TABLE IF NOT EXISTS semantic_meta (
    id INTEGER PRIMARY KEY,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    kind TEXT NOT NULL,
    tags TEXT,
    importance INTEGER NOT NULL DEFAULT 5,
    indexed INTEGER NOT NULL DEFAULT 0,
    superseded_by INTEGER,
    supersede_reason TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    last_access TEXT NOT NULL DEFAULT (datetime('now'))
);

-- Knowledge tier: entities and relationships, direct writes only
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    description TEXT,
    importance INTEGER NOT NULL DEFAULT 5,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(name, entity_type)
);

CREATE TABLE IF NOT EXISTS relationships (
    id INTEGER PRIMARY KEY,
    from_entity TEXT NOT NULL,
    to_entity TEXT NOT NULL,
    relation TEXT NOT NULL,
    context TEXT,
    weight REAL NOT NULL DEFAULT 1.0,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- FTS5 full-text index over working memory for ranked search
CREATE VIRTUAL TABLE IF NOT EXISTS working_fts USING fts5(
    content,
    tags,
    content=working_memory,
    content_rowid=id
);

-- Triggers to keep the working FTS index in sync
CREATE TRIGGER IF NOT EXISTS working_ai AFTER INSERT ON working_memory BEGIN
    INSERT INTO working_fts(rowid, content, tags) VALUES (new.id, new.content, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS working_ad AFTER DELETE ON working_memory BEGIN
    INSERT INTO working_fts(working_fts, rowid, content, tags) VALUES ('delete', old.id, old.content, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS working_au AFTER UPDATE ON working_memory BEGIN
    INSERT INTO working_fts(working_fts, rowid, content, tags) VALUES ('delete', old.id, old.content, old.tags);
    INSERT INTO working_fts(rowid, content, tags) VALUES (new.id, new.content, new.tags);
END;

-- FTS5 full-text index over session memory
CREATE VIRTUAL TABLE IF NOT EXISTS session_fts USING fts5(
    content,
    content=session_memory,
    content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS session_ai AFTER INSERT ON session_memory BEGIN
    INSERT INTO session_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS session_ad AFTER DELETE ON session_memory BEGIN
    INSERT INTO session_fts(session_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS session_au AFTER UPDATE ON session_memory BEGIN
    INSERT INTO session_fts(session_fts, rowid, content) VALUES ('delete', old.id, old.content);
    INSERT INTO session_fts(rowid, content) VALUES (new.id, new.content);
END;
`

// MigratePartitioning adds agent-ownership columns to working_memory tables
// created before the partition layer existed.
const MigratePartitioning = `
ALTER TABLE working_memory ADD COLUMN owner_agent TEXT NOT NULL DEFAULT '';
ALTER TABLE working_memory ADD COLUMN shared INTEGER NOT NULL DEFAULT 0;
`

// MigrateSupersession adds the supersession columns to tables created
// before correction propagation existed.
const MigrateSupersession = `
ALTER TABLE working_memory ADD COLUMN superseded_by INTEGER;
ALTER TABLE working_memory ADD COLUMN supersede_reason TEXT;
ALTER TABLE session_memory ADD COLUMN superseded_by INTEGER;
ALTER TABLE session_memory ADD COLUMN supersede_reason TEXT;
ALTER TABLE semantic_meta ADD COLUMN superseded_by INTEGER;
ALTER TABLE semantic_meta ADD COLUMN supersede_reason TEXT;
ALTER TABLE daily_log ADD COLUMN superseded_by INTEGER;
ALTER TABLE daily_log ADD COLUMN supersede_reason TEXT;
`
