package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"mnemo/pkg/maintain"

	"github.com/spf13/cobra"
)

// newHealthCmd creates the "mnemo health" subcommand.
func newHealthCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report store health and tier counts",
		Long:  "Prints an integrity verdict, live row counts per tier, the promotion\nbacklog, and the store size. A store that does not exist yet is\nreported healthy and empty, not as an error.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}

			sum, err := maintain.Health(context.Background(), paths.DBPath)
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}

			fmt.Fprintf(w, "store:   %s\n", sum.Path)
			fmt.Fprintf(w, "healthy: %t\n", sum.Healthy)
			if len(sum.TierCounts) == 0 {
				fmt.Fprintln(w, "empty (run 'mnemo init' to create the store)")
				return nil
			}

			names := make([]string, 0, len(sum.TierCounts))
			for name := range sum.TierCounts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "  %-10s %d\n", name, sum.TierCounts[name])
			}

			fmt.Fprintf(w, "memories:        %d\n", sum.MemoriesCount)
			fmt.Fprintf(w, "staging pending: %d\n", sum.StagingPending)
			fmt.Fprintf(w, "superseded:      %d\n", sum.Superseded)
			if sum.DBSizeBytes > 0 {
				fmt.Fprintf(w, "size:            %d bytes\n", sum.DBSizeBytes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}
