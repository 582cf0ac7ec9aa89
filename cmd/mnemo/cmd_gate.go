package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"mnemo/pkg/config"
	"mnemo/pkg/gate"

	"github.com/spf13/cobra"
)

// gateConfig builds the admission config from the loaded file config.
// When a criteria file is set, LoadCriteriaFile returns the defaults
// with the file's criteria appended, so the result replaces Criteria
// wholesale.
func gateConfig(cfg config.Config) (gate.Config, error) {
	gc := gate.Config{
		MinLength: cfg.Gate.MinLength,
		MinScore:  cfg.Gate.MinScore,
	}
	if cfg.Gate.CriteriaFile != "" {
		criteria, err := gate.LoadCriteriaFile(cfg.Gate.CriteriaFile)
		if err != nil {
			return gate.Config{}, err
		}
		gc.Criteria = criteria
	}
	return gc, nil
}

// newGateCmd creates the "mnemo gate" subcommand. It evaluates content
// against the admission criteria without writing anything, so agents
// can probe what would be admitted.
func newGateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "gate <text>",
		Short: "Score text against the write-admission gate",
		Long:  "Evaluates text against the admission criteria and prints the verdict,\nscore, and matched criteria. Nothing is written to the store.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			paths, err := ResolvePaths()
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			cfg, err := config.Load(paths.ConfigPath)
			if err != nil {
				return err
			}
			gc, err := gateConfig(cfg)
			if err != nil {
				return err
			}

			res := gate.Evaluate(text, gc)
			w := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if res.Passed {
				fmt.Fprintf(w, "PASS score=%.2f\n", res.Score)
			} else {
				fmt.Fprintf(w, "REJECT: %s\n", res.RejectionReason)
			}
			for _, c := range res.Criteria {
				if c.Matched {
					fmt.Fprintf(w, "  matched: %s\n", c.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")

	return cmd
}
