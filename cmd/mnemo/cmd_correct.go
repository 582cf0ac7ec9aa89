package main

import (
	"context"
	"fmt"
	"strings"

	"mnemo/pkg/config"
	"mnemo/pkg/correct"
	"mnemo/pkg/store"

	"github.com/spf13/cobra"
)

// newCorrectCmd creates the "mnemo correct" subcommand.
func newCorrectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "correct <old-fragment> <new-content>",
		Short: "Propagate a correction across all tiers",
		Long: `Finds stored memories matching the old fragment (substring or fuzzy),
marks them superseded, and records the corrected content as a new
working memory. Superseded rows are retained for audit, never deleted,
and the correction itself is logged in the daily log. A correction with
no matching rows is still recorded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, paths, err := openExistingDB()
			if err != nil {
				return fmt.Errorf("correct: %w", err)
			}
			defer db.Close()

			cfg, err := config.Load(paths.ConfigPath)
			if err != nil {
				return err
			}

			p := correct.New(db, correct.Opts{Capacity: cfg.Working.Capacity})
			res, err := p.Propagate(context.Background(), args[0], args[1], reason)
			if err != nil {
				return fmt.Errorf("correct: %w", err)
			}

			w := cmd.OutOrStdout()
			if res.OriginalFound {
				fmt.Fprintf(w, "Superseded %d entries across %s.\n",
					res.SupersededCount, tierList(res.TiersUpdated))
			} else {
				fmt.Fprintf(w, "No stored memory matched %q; recorded the correction anyway.\n", args[0])
			}
			fmt.Fprintf(w, "Corrected entry id=%d\n", res.CorrectedEntryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the original was wrong (kept in the audit trail)")

	return cmd
}

// tierList joins tier names for display.
func tierList(tiers []store.Tier) string {
	names := make([]string, 0, len(tiers))
	for _, t := range tiers {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
