package main

import (
	"fmt"

	"mnemo/internal/version"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root mnemo command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mnemo",
		Short:         "Tiered memory store for coding agents",
		Long:          "mnemo is a persistent memory substrate for autonomous coding agents.\nWrites pass an admission gate into a day-scoped staging log, promotion\nmoves entries into working, session, and semantic tiers, and maintenance\nkeeps the store small through decay pruning and deduplication.",
		Version:       fmt.Sprintf("mnemo %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newGateCmd(),
		newRememberCmd(),
		newLogCmd(),
		newPromoteCmd(),
		newQueryCmd(),
		newMaintainCmd(),
		newHealthCmd(),
		newCorrectCmd(),
		newHistoryCmd(),
		newAgentsCmd(),
		newShareCmd(),
		newUnshareCmd(),
		newClearAgentCmd(),
		newVersionCmd(),
	)

	return cmd
}

// newVersionCmd creates the "mnemo version" subcommand, equivalent to
// the --version flag.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mnemo version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "mnemo %s\n", version.String())
			return nil
		},
	}
}
