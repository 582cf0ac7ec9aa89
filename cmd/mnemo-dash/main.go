// Package main implements the mnemo-dash live store dashboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// robotSnapshot outputs a JSON snapshot of the store for scripts and
// non-interactive callers.
func robotSnapshot(ctx context.Context, dbPath string) ([]byte, error) {
	health, err := fetchHealth(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	partitions, err := fetchPartitions(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}
	corrections, err := fetchCorrections(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("corrections: %w", err)
	}

	snapshot := map[string]any{
		"health":      health,
		"partitions":  partitions,
		"corrections": corrections,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// wantsJSON reports whether the snapshot mode was requested.
func wantsJSON(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

func main() {
	log.SetPrefix("[dash] ")
	dbPath := resolveDBPath()

	if wantsJSON(os.Args[1:]) {
		data, err := robotSnapshot(context.Background(), dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mnemo-dash: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "mnemo-dash: stdout is not a terminal (use --json for a snapshot)")
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(dbPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
