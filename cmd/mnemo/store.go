package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"mnemo/pkg/config"
	"mnemo/pkg/daylog"
	"mnemo/pkg/store"
	"mnemo/pkg/tier"
	"mnemo/pkg/vector"
)

// mnemoStore bundles the open database with the handles the commands
// share: resolved paths, loaded config, the staging log, and the tiers
// wired to the persistent vector index.
type mnemoStore struct {
	paths *Paths
	cfg   config.Config
	db    *sql.DB
	log   *daylog.Log
	tiers *tier.Tiers
}

// Close releases the database handle.
func (s *mnemoStore) Close() {
	_ = s.db.Close()
}

// openDefaultStore opens (or creates) the default store at
// ~/.mnemo/memory.db, ensures the schema is applied, and wires the
// tier handles. CLI commands and the maintenance daemon read and write
// the same database, so WAL mode keeps them from blocking each other.
func openDefaultStore() (*mnemoStore, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(paths.Home, 0o750); err != nil {
		return nil, fmt.Errorf("create mnemo home: %w", err)
	}

	db, err := store.Open(paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	if err := store.Bootstrap(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	indexDir := paths.IndexDir
	if cfg.Semantic.IndexPath != "" {
		indexDir = cfg.Semantic.IndexPath
	}
	idx, err := vector.NewPersistent(indexDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &mnemoStore{
		paths: paths,
		cfg:   cfg,
		db:    db,
		log:   daylog.New(db),
		tiers: tier.New(db, cfg.Working.Capacity, idx),
	}, nil
}

// openExistingDB opens the store at the resolved path, requiring that
// it already exists. Commands that mutate or read rows but never
// create the store go through here; a missing file surfaces
// store.ErrNotInitialized instead of silently creating an empty db.
func openExistingDB() (*sql.DB, *Paths, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve paths: %w", err)
	}
	if !store.Exists(paths.DBPath) {
		return nil, nil, fmt.Errorf("%s: %w", paths.DBPath, store.ErrNotInitialized)
	}

	db, err := store.Open(paths.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open memory db: %w", err)
	}
	if err := store.Bootstrap(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, paths, nil
}
