package main

import (
	"context"
	"fmt"
	"strings"

	"mnemo/pkg/daylog"
	"mnemo/pkg/store"

	"github.com/spf13/cobra"
)

// truncateContent truncates s to maxLen characters, appending "..." if truncated.
func truncateContent(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// formatCreatedAt returns the date portion of a datetime string.
func formatCreatedAt(createdAt string) string {
	if len(createdAt) >= 10 {
		return createdAt[:10]
	}
	return createdAt
}

// formatStagingTable formats staging entries as a tabular string.
func formatStagingTable(entries []store.StagingEntry) string {
	if len(entries) == 0 {
		return "No staging entries found.\n"
	}

	const maxContent = 56

	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-12s %-6s %-10s %s\n", "ID", "KIND", "SCORE", "PROMOTED", "CONTENT")
	for _, e := range entries {
		promoted := "-"
		if e.Promoted {
			promoted = string(e.PromotedTier)
		}
		content := truncateContent(strings.ReplaceAll(e.Content, "\n", " "), maxContent)
		fmt.Fprintf(&b, "%-6d %-12s %-6.2f %-10s %s\n", e.ID, e.Kind, e.GateScore, promoted, content)
	}
	return b.String()
}

// newLogCmd creates the "mnemo log" subcommand.
func newLogCmd() *cobra.Command {
	var (
		date       string
		unpromoted bool
		dates      bool
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Browse the day-scoped staging log",
		Long:  "Lists staging entries for one calendar day (default: today).\n--unpromoted shows the promotion backlog across all days;\n--dates lists the days present in the log with entry counts.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := openExistingDB()
			if err != nil {
				return fmt.Errorf("log: %w", err)
			}
			defer db.Close()

			ctx := context.Background()
			lg := daylog.New(db)
			w := cmd.OutOrStdout()

			if dates {
				days, err := lg.Dates(ctx)
				if err != nil {
					return fmt.Errorf("log: %w", err)
				}
				if len(days) == 0 {
					fmt.Fprintln(w, "No staging entries found.")
					return nil
				}
				fmt.Fprintf(w, "%-12s %s\n", "DATE", "ENTRIES")
				for _, d := range days {
					fmt.Fprintf(w, "%-12s %d\n", d.Date, d.Entries)
				}
				return nil
			}

			var entries []store.StagingEntry
			if unpromoted {
				entries, err = lg.Unpromoted(ctx)
			} else {
				entries, err = lg.ByDate(ctx, date)
			}
			if err != nil {
				return fmt.Errorf("log: %w", err)
			}

			fmt.Fprint(w, formatStagingTable(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calendar day to list (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&unpromoted, "unpromoted", false, "list unpromoted entries across all days")
	cmd.Flags().BoolVar(&dates, "dates", false, "list the days present in the log")

	return cmd
}
