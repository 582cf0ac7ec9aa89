package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"mnemo/pkg/agent"

	"github.com/spf13/cobra"
)

// newClearAgentCmd creates the "mnemo clear-agent" subcommand.
func newClearAgentCmd() *cobra.Command {
	return newClearAgentCmdWithTTY(isStdinTTY)
}

// newClearAgentCmdWithTTY creates the clear-agent command with an
// injectable TTY check, so tests can exercise the confirmation prompt.
func newClearAgentCmdWithTTY(isTTY func() bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-agent <agent-id>",
		Short: "Delete every working memory an agent owns",
		Long:  "Hard-deletes all working memories owned by the agent, shared or not.\nUsed when an agent is deregistered. Asks for confirmation unless --yes\nis given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := args[0]
			w := cmd.OutOrStdout()

			if !yes {
				if !isTTY() {
					return fmt.Errorf("clear-agent deletes rows permanently; pass --yes to confirm")
				}
				fmt.Fprintf(w, "Delete all working memories owned by %q? [y/N] ", agentID)
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return fmt.Errorf("clear-agent: read confirmation: %w", err)
				}
				if strings.ToLower(strings.TrimSpace(line)) != "y" {
					fmt.Fprintln(w, "aborted")
					return nil
				}
			}

			db, _, err := openExistingDB()
			if err != nil {
				return fmt.Errorf("clear-agent: %w", err)
			}
			defer db.Close()

			n, err := agent.New(db, agent.Opts{}).ClearAgent(context.Background(), agentID)
			if err != nil {
				return fmt.Errorf("clear-agent: %w", err)
			}

			fmt.Fprintf(w, "Cleared %d entries owned by %s\n", n, agentID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	return cmd
}
