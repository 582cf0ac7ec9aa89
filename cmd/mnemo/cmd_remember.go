package main

import (
	"context"
	"fmt"
	"strings"

	"mnemo/pkg/gate"
	"mnemo/pkg/tier"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// rememberFlags holds the optional fields of a remember invocation.
type rememberFlags struct {
	kind       string
	importance int
	session    string
	agentID    string
	tags       string
	direct     string
}

// newRememberCmd creates the "mnemo remember" subcommand. The default
// path runs the admission gate and stages admitted content in the daily
// log; --direct bypasses the gate and writes straight into a tier.
func newRememberCmd() *cobra.Command {
	var flags rememberFlags

	cmd := &cobra.Command{
		Use:   "remember <text>",
		Short: "Store a memory",
		Long: `Runs text through the write-admission gate and stages it in the daily
log for later promotion. A rejection is reported, not an error.

With --direct the gate is skipped and the text is written straight into
the named tier (working|session|semantic). --agent makes a working-tier
write private to that agent; --session names the session for a
session-tier write (default: a fresh UUID).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openDefaultStore()
			if err != nil {
				return fmt.Errorf("remember: %w", err)
			}
			defer s.Close()
			return runRemember(cmd, s, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", "", "record kind (action|observation|thought|goal|decision|lesson)")
	cmd.Flags().IntVar(&flags.importance, "importance", 0, "importance 1..10 (default 5)")
	cmd.Flags().StringVar(&flags.session, "session", "", "session id for --direct session writes")
	cmd.Flags().StringVar(&flags.agentID, "agent", "", "owner agent for --direct working writes")
	cmd.Flags().StringVar(&flags.tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&flags.direct, "direct", "", "bypass the gate and write to this tier (working|session|semantic)")

	return cmd
}

// runRemember is the core logic for the remember command, separated so
// tests can drive it against an open store.
func runRemember(cmd *cobra.Command, s *mnemoStore, text string, flags rememberFlags) error {
	ctx := context.Background()
	w := cmd.OutOrStdout()

	if flags.agentID != "" && flags.direct != "working" {
		return fmt.Errorf("--agent applies only to --direct working writes")
	}

	switch flags.direct {
	case "":
		gc, err := gateConfig(s.cfg)
		if err != nil {
			return err
		}
		res := gate.Evaluate(text, gc)
		if !res.Passed {
			fmt.Fprintf(w, "Rejected: %s\n", res.RejectionReason)
			return nil
		}
		id, err := s.log.Write(ctx, text, flags.kind, res.Score)
		if err != nil {
			return fmt.Errorf("remember: %w", err)
		}
		fmt.Fprintf(w, "Staged (id=%d, score=%.2f): %s\n", id, res.Score, text)

	case "working":
		id, err := s.tiers.Working.Insert(ctx, text, flags.kind, tier.InsertOpts{
			Tags:       flags.tags,
			Importance: flags.importance,
			OwnerAgent: flags.agentID,
		})
		if err != nil {
			return fmt.Errorf("remember: %w", err)
		}
		fmt.Fprintf(w, "Remembered (tier=working, id=%d): %s\n", id, text)

	case "session":
		sessionID := flags.session
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		id, created, err := s.tiers.Session.Insert(ctx, sessionID, text, flags.kind, flags.importance)
		if err != nil {
			return fmt.Errorf("remember: %w", err)
		}
		if created {
			fmt.Fprintf(w, "Remembered (tier=session, session=%s, id=%d): %s\n", sessionID, id, text)
		} else {
			fmt.Fprintf(w, "Already present (tier=session, session=%s, id=%d)\n", sessionID, id)
		}

	case "semantic":
		id, err := s.tiers.Semantic.Insert(ctx, text, flags.kind, flags.tags, flags.importance)
		if err != nil {
			return fmt.Errorf("remember: %w", err)
		}
		fmt.Fprintf(w, "Remembered (tier=semantic, id=%d): %s\n", id, text)

	default:
		return fmt.Errorf("unknown tier %q (working|session|semantic)", flags.direct)
	}

	return nil
}
