package main

import (
	"context"
	"fmt"
	"os"

	"mnemo/pkg/config"
	"mnemo/pkg/store"
	"mnemo/pkg/vector"

	"github.com/spf13/cobra"
)

// newInitCmd creates the "mnemo init" subcommand.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the mnemo home, config, and memory store",
		Long: `Creates the mnemo home directory, writes a commented default
config.yaml, applies the store schema, and prepares the vector index
directory. Safe to run repeatedly: an existing config is kept unless
--force is given, and the schema is applied idempotently.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")

	return cmd
}

// runInit is the core logic for the init command.
func runInit(cmd *cobra.Command, force bool) error {
	w := cmd.OutOrStdout()

	paths, err := ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if err := os.MkdirAll(paths.Home, 0o750); err != nil {
		return fmt.Errorf("create mnemo home: %w", err)
	}

	configNote := "created"
	if _, err := os.Stat(paths.ConfigPath); err == nil {
		if !force {
			configNote = "kept"
		} else {
			if err := os.Remove(paths.ConfigPath); err != nil {
				return fmt.Errorf("remove old config: %w", err)
			}
			configNote = "overwritten"
		}
	}
	if configNote != "kept" {
		if err := config.WriteDefault(paths.ConfigPath); err != nil {
			return err
		}
	}

	db, err := store.Open(paths.DBPath)
	if err != nil {
		return fmt.Errorf("open memory db: %w", err)
	}
	defer db.Close()
	if err := store.Bootstrap(context.Background(), db); err != nil {
		return err
	}

	// Opening the persistent index creates its directory skeleton.
	if _, err := vector.NewPersistent(paths.IndexDir); err != nil {
		return err
	}

	fmt.Fprintf(w, "Initialized mnemo home at %s\n", paths.Home)
	fmt.Fprintf(w, "  config: %s (%s)\n", paths.ConfigPath, configNote)
	fmt.Fprintf(w, "  store:  %s\n", paths.DBPath)
	fmt.Fprintf(w, "  vector: %s\n", paths.IndexDir)
	return nil
}
