package main

import (
	"context"
	"encoding/json"
	"fmt"

	"mnemo/pkg/agent"
	"mnemo/pkg/store"

	"github.com/spf13/cobra"
)

// newAgentsCmd creates the "mnemo agents" subcommand.
func newAgentsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agent partitions in the working tier",
		Long:  "Lists every agent that owns working memories, with live entry counts\nand last activity. Unowned (global) rows are not part of any partition.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			db, err := store.OpenReadOnly(paths.DBPath)
			if err != nil {
				return fmt.Errorf("agents: %w", err)
			}
			defer db.Close()

			infos, err := agent.New(db, agent.Opts{}).Partitions(context.Background())
			if err != nil {
				return fmt.Errorf("agents: %w", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			if len(infos) == 0 {
				fmt.Fprintln(w, "No agent partitions.")
				return nil
			}
			fmt.Fprintf(w, "%-20s %-8s %s\n", "AGENT", "ENTRIES", "LAST ACTIVITY")
			for _, info := range infos {
				fmt.Fprintf(w, "%-20s %-8d %s\n", info.AgentID, info.EntryCount, info.LastActivity)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the partitions as JSON")

	return cmd
}
