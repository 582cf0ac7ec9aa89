package main

import (
	"context"
	"fmt"
	"strings"

	"mnemo/pkg/daylog"
	"mnemo/pkg/tier"

	"github.com/spf13/cobra"
)

// newPromoteCmd creates the "mnemo promote" subcommand.
func newPromoteCmd() *cobra.Command {
	var (
		dryRun   bool
		minScore float64
		session  string
	)

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote staged entries into the memory tiers",
		Long: `Moves every eligible staging entry into the tier its gate score
suggests: high scores to working, mid-band to semantic, the rest to
session memory. Entries below the promotion floor stay staged.

--dry-run lists the candidates and their destinations without moving
anything. --session routes session-banded entries into a named session
instead of the per-day default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openDefaultStore()
			if err != nil {
				return fmt.Errorf("promote: %w", err)
			}
			defer s.Close()
			return runPromote(cmd, s, dryRun, minScore, session)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list candidates without promoting")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "promotion score floor (default from config)")
	cmd.Flags().StringVar(&session, "session", "", "target session id for session-banded entries")

	return cmd
}

func runPromote(cmd *cobra.Command, s *mnemoStore, dryRun bool, minScore float64, session string) error {
	ctx := context.Background()
	w := cmd.OutOrStdout()

	if minScore <= 0 {
		minScore = s.cfg.Promotion.MinScore
	}
	bands := daylog.Bands{
		WorkingCutoff:  s.cfg.Promotion.WorkingCutoff,
		SemanticCutoff: s.cfg.Promotion.SemanticCutoff,
	}

	if dryRun {
		cands, err := s.log.PromotionCandidates(ctx, minScore, bands)
		if err != nil {
			return fmt.Errorf("promote: %w", err)
		}
		if len(cands) == 0 {
			fmt.Fprintln(w, "No promotion candidates.")
			return nil
		}
		fmt.Fprintf(w, "%-6s %-6s %-10s %s\n", "ID", "SCORE", "TIER", "CONTENT")
		for _, c := range cands {
			content := truncateContent(strings.ReplaceAll(c.Content, "\n", " "), 56)
			fmt.Fprintf(w, "%-6d %-6.2f %-10s %s\n", c.ID, c.GateScore, c.SuggestedTier, content)
		}
		fmt.Fprintf(w, "\n%d candidate(s); run without --dry-run to promote.\n", len(cands))
		return nil
	}

	res, err := tier.Promote(ctx, s.log, s.tiers, tier.PromoteOpts{
		MinScore:  minScore,
		Bands:     bands,
		SessionID: session,
	})
	if err != nil {
		return fmt.Errorf("promote: %w", err)
	}

	for _, p := range res.Promoted {
		fmt.Fprintf(w, "promoted %d -> %s (record %d)\n", p.EntryID, p.Tier, p.RecordID)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "failed %d -> %s: %s\n", f.EntryID, f.Tier, f.Reason)
	}
	if len(res.Promoted) == 0 && len(res.Failed) == 0 {
		fmt.Fprintln(w, "Nothing to promote.")
		return nil
	}
	fmt.Fprintf(w, "Promoted %d entries (%d failed).\n", len(res.Promoted), len(res.Failed))
	return nil
}
