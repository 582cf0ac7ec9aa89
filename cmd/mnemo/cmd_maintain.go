package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mnemo/pkg/config"
	"mnemo/pkg/maintain"
	"mnemo/pkg/store"

	"github.com/spf13/cobra"
)

// maintainFlags holds the maintain command's flag values.
type maintainFlags struct {
	dryRun      bool
	decayFactor float64
	pruneFloor  float64
	daemon      bool
	schedule    string
	asJSON      bool
}

// newMaintainCmd creates the "mnemo maintain" subcommand.
func newMaintainCmd() *cobra.Command {
	var flags maintainFlags

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Prune decayed rows, deduplicate, and reindex",
		Long: `Runs one maintenance pass: rows whose decayed importance has fallen
below the prune floor are deleted, duplicate rows collapse to the most
important survivor, unindexed semantic rows are re-embedded, and
housekeeping recommendations are reported.

--daemon keeps running on a cron schedule (default from config) until
interrupted. --dry-run counts what would change without deleting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.daemon {
				return runMaintainDaemon(cmd, flags)
			}
			res, err := runMaintenance(context.Background(), flags)
			if err != nil {
				return fmt.Errorf("maintain: %w", err)
			}
			return printMaintainResult(cmd, res, flags.asJSON)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "count without deleting")
	cmd.Flags().Float64Var(&flags.decayFactor, "decay-factor", 0, "per-day importance multiplier (default from config)")
	cmd.Flags().Float64Var(&flags.pruneFloor, "prune-floor", 0, "effective importance below which rows are pruned (default from config)")
	cmd.Flags().BoolVar(&flags.daemon, "daemon", false, "keep running on a cron schedule")
	cmd.Flags().StringVar(&flags.schedule, "schedule", "", "cron spec for --daemon (default from config)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print the result as JSON")

	return cmd
}

// runMaintenance performs one pass against the default store. A store
// that does not exist yet is not an error: the result just recommends
// initializing it.
func runMaintenance(ctx context.Context, flags maintainFlags) (maintain.Result, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return maintain.Result{}, fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return maintain.Result{}, err
	}

	mcfg := maintain.Config{
		DecayFactor: cfg.Maintenance.DecayFactor,
		PruneFloor:  cfg.Maintenance.PruneFloor,
		DryRun:      flags.dryRun,
	}
	if flags.decayFactor > 0 {
		mcfg.DecayFactor = flags.decayFactor
	}
	if flags.pruneFloor > 0 {
		mcfg.PruneFloor = flags.pruneFloor
	}

	if !store.Exists(paths.DBPath) {
		return maintain.RunPath(ctx, paths.DBPath, mcfg)
	}

	s, err := openDefaultStore()
	if err != nil {
		return maintain.Result{}, err
	}
	defer s.Close()
	return maintain.Run(ctx, s.db, s.tiers, mcfg)
}

func printMaintainResult(cmd *cobra.Command, res maintain.Result, asJSON bool) error {
	w := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "stale entries pruned:  %d\n", res.StaleEntriesPruned)
	fmt.Fprintf(w, "duplicates removed:    %d\n", res.DuplicatesRemoved)
	if res.Reindexed > 0 {
		fmt.Fprintf(w, "semantic rows indexed: %d\n", res.Reindexed)
	}
	for _, r := range res.Recommendations {
		fmt.Fprintf(w, "recommendation: %s\n", r)
	}
	return nil
}

// runMaintainDaemon runs maintenance on a cron schedule until the
// process is interrupted.
func runMaintainDaemon(cmd *cobra.Command, flags maintainFlags) error {
	paths, err := ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return err
	}

	schedule := flags.schedule
	if schedule == "" {
		schedule = cfg.Maintenance.Schedule
	}

	logger := log.New(cmd.ErrOrStderr(), "[maintain] ", log.LstdFlags)
	job := func() {
		res, err := runMaintenance(context.Background(), flags)
		if err != nil {
			logger.Printf("pass failed: %v", err)
			return
		}
		logger.Printf("pruned=%d deduplicated=%d reindexed=%d",
			res.StaleEntriesPruned, res.DuplicatesRemoved, res.Reindexed)
		for _, r := range res.Recommendations {
			logger.Printf("recommendation: %s", r)
		}
	}

	sched, err := maintain.NewScheduler(schedule, job)
	if err != nil {
		return fmt.Errorf("maintain: %w", err)
	}

	logger.Printf("daemon started, schedule %s, store %s", schedule, paths.DBPath)
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Printf("shutting down")
	return nil
}
