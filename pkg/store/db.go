package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open opens a SQLite database at path and enforces production-safe
// defaults: WAL journal mode and a 5-second busy timeout, so readers
// are never blocked by a concurrent maintenance pass. It also calls
// db.PingContext to verify the connection is usable before returning.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	return db, nil
}

// OpenReadOnly opens an existing store in read-only mode with WAL, for
// consumers (dashboard, health checks) that must never block writers.
// Returns ErrNotInitialized if the database file does not exist.
func OpenReadOnly(path string) (*sql.DB, error) {
	if !Exists(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotInitialized)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite read-only %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return db, nil
}

// Bootstrap applies the schema and migrations. Safe to call on every
// startup: the DDL is IF NOT EXISTS throughout, and each migration
// uses ALTER TABLE which errors if the column already exists, so those
// errors are intentionally ignored.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SchemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	_, _ = db.ExecContext(ctx, MigratePartitioning)
	_, _ = db.ExecContext(ctx, MigrateSupersession)
	return nil
}

// Exists reports whether a store file is present at path. In-memory
// databases (":memory:") always exist.
func Exists(path string) bool {
	if path == ":memory:" || path == "" {
		return path == ":memory:"
	}
	_, err := os.Stat(path)
	return err == nil
}
