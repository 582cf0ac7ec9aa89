package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mnemo/pkg/store"
	"mnemo/pkg/tier"

	"github.com/spf13/cobra"
)

// hit is one query result, whichever engine produced it. Score is the
// FTS5 bm25 rank for text search (lower is better) or the cosine
// similarity for semantic search (higher is better).
type hit struct {
	store.Record
	Score float64 `json:"score"`
}

// formatHitsPlain renders results for a human reader.
func formatHitsPlain(hits []hit) string {
	if len(hits) == 0 {
		return "No memories found.\n"
	}

	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, h.Tier, h.Content)
		fmt.Fprintf(&b, "   kind: %s | importance: %d | score: %.4f | created: %s\n",
			h.Kind, h.Importance, h.Score, formatCreatedAt(h.CreatedAt))
	}
	return b.String()
}

// formatHitsPrompt renders a compact numbered block suitable for
// injecting directly into an agent prompt. Empty results render
// nothing so nothing gets injected.
func formatHitsPrompt(hits []hit) string {
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant memories:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. [%s/%s] %s\n", i+1, h.Tier, h.Kind, h.Content)
	}
	return b.String()
}

// newQueryCmd creates the "mnemo query" subcommand.
func newQueryCmd() *cobra.Command {
	var (
		semantic bool
		kind     string
		limit    int
		agentID  string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search memories",
		Long: `Ranked full-text search over the working and session tiers. Matched
rows get their last access refreshed and importance nudged up, which is
what keeps retrieved memories alive through decay pruning.

--semantic searches the vector index instead; when no index is
configured it falls back to text search. --agent scopes working-tier
results to rows that agent can see. --format picks the output: plain
(human), prompt (compact block for prompt injection), or json. The
default is plain on a terminal and prompt when piped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openDefaultStore()
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer s.Close()
			return runQuery(cmd, s, strings.Join(args, " "), queryFlags{
				semantic: semantic,
				kind:     kind,
				limit:    limit,
				agentID:  agentID,
				format:   format,
			})
		},
	}

	cmd.Flags().BoolVar(&semantic, "semantic", false, "search by vector similarity instead of full text")
	cmd.Flags().StringVar(&kind, "kind", "", "restrict results to one record kind")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().StringVar(&agentID, "agent", "", "scope working-tier results to this agent's visibility")
	cmd.Flags().StringVar(&format, "format", "", "output format: plain|prompt|json (default by terminal)")

	return cmd
}

// queryFlags holds the query command's flag values.
type queryFlags struct {
	semantic bool
	kind     string
	limit    int
	agentID  string
	format   string
}

func runQuery(cmd *cobra.Command, s *mnemoStore, text string, flags queryFlags) error {
	ctx := context.Background()

	hits, err := collectHits(ctx, cmd, s, text, flags)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	format := flags.format
	if format == "" {
		format = "plain"
		if !isStdoutTTY() {
			format = "prompt"
		}
	}

	w := cmd.OutOrStdout()
	switch format {
	case "plain":
		fmt.Fprint(w, formatHitsPlain(hits))
	case "prompt":
		fmt.Fprint(w, formatHitsPrompt(hits))
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	default:
		return fmt.Errorf("unknown format %q (plain|prompt|json)", format)
	}
	return nil
}

// collectHits runs the requested search engine and normalizes results.
func collectHits(ctx context.Context, cmd *cobra.Command, s *mnemoStore, text string, flags queryFlags) ([]hit, error) {
	if flags.semantic {
		results, err := s.tiers.Semantic.Search(ctx, text, flags.limit)
		switch {
		case errors.Is(err, tier.ErrNoIndex):
			fmt.Fprintln(cmd.ErrOrStderr(), "semantic index not configured; falling back to text search")
		case err != nil:
			return nil, err
		default:
			hits := make([]hit, 0, len(results))
			for _, r := range results {
				if flags.kind != "" && r.Kind != flags.kind {
					continue
				}
				hits = append(hits, hit{Record: r.Record, Score: r.Similarity})
			}
			return hits, nil
		}
	}

	results, err := s.tiers.SearchText(ctx, text, tier.SearchOpts{
		Kind:  flags.kind,
		Agent: flags.agentID,
		Limit: flags.limit,
	})
	if err != nil {
		return nil, err
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hit{Record: r.Record, Score: r.Rank})
	}
	return hits, nil
}
