package main

import (
	"context"
	"encoding/json"
	"fmt"

	"mnemo/pkg/correct"
	"mnemo/pkg/store"

	"github.com/spf13/cobra"
)

// newHistoryCmd creates the "mnemo history" subcommand.
func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show superseded memories and what replaced them",
		Long:  "Lists every superseded memory across all tiers, newest correction\nfirst, with the replacement content and the recorded reason.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			db, err := store.OpenReadOnly(paths.DBPath)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer db.Close()

			entries, err := correct.SupersededHistory(context.Background(), db)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(w, "No superseded memories.")
				return nil
			}
			for _, e := range entries {
				when := e.CorrectedAt
				if when == "" {
					when = e.RecordedAt
				}
				fmt.Fprintf(w, "%s  [%s]  %q\n", when, e.Tier, e.Content)
				if e.Replacement != "" {
					fmt.Fprintf(w, "  -> %q\n", e.Replacement)
				}
				if e.Reason != "" {
					fmt.Fprintf(w, "  reason: %s\n", e.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the history as JSON")

	return cmd
}
