package main

import (
	"context"
	"fmt"
	"strconv"

	"mnemo/pkg/agent"

	"github.com/spf13/cobra"
)

// newShareCmd creates the "mnemo share" subcommand.
func newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <id>",
		Short: "Share a working memory with all agents",
		Long:  "Marks a working memory as shared, making it visible to every agent.\nSharing an already-shared memory is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetShared(cmd, args[0], true)
		},
	}
}

// newUnshareCmd creates the "mnemo unshare" subcommand.
func newUnshareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unshare <id>",
		Short: "Make a shared working memory private again",
		Long:  "Clears the shared flag on a working memory, restoring owner-only\nvisibility. Unsharing a private memory is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetShared(cmd, args[0], false)
		},
	}
}

func runSetShared(cmd *cobra.Command, arg string, shared bool) error {
	verb := "share"
	if !shared {
		verb = "unshare"
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid id %q: %w", verb, arg, err)
	}

	db, _, err := openExistingDB()
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	defer db.Close()

	part := agent.New(db, agent.Opts{})
	ctx := context.Background()
	if shared {
		err = part.Share(ctx, id)
	} else {
		err = part.Unshare(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}

	if shared {
		fmt.Fprintf(cmd.OutOrStdout(), "Shared working memory %d\n", id)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unshared working memory %d\n", id)
	}
	return nil
}
