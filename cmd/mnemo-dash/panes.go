package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"mnemo/pkg/agent"
)

// sizeLabel renders a byte count at B/KB/MB granularity. The store is
// a local SQLite file; larger units are out of scope.
func sizeLabel(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// truncate shortens s to max characters, appending an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// renderTiersPane renders live row counts per tier.
func (m Model) renderTiersPane() string {
	title := m.styles.SectionTitle.Render("Tiers")
	if len(m.health.TierCounts) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.styles.Muted.Render("store not initialized (run 'mnemo init')"))
	}

	names := make([]string, 0, len(m.health.TierCounts))
	for name := range m.health.TierCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	lines = append(lines, title)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%-10s %d", name, m.health.TierCounts[name]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// newPartitionsTable builds the read-only agents table.
func newPartitionsTable(infos []agent.Info) table.Model {
	columns := []table.Column{
		{Title: "Agent", Width: 20},
		{Title: "Entries", Width: 8},
		{Title: "Last activity", Width: 20},
	}

	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, table.Row{
			info.AgentID,
			fmt.Sprintf("%d", info.EntryCount),
			info.LastActivity,
		})
	}

	height := len(rows)
	if height < 1 {
		height = 1
	}
	if height > 8 {
		height = 8
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
	)

	// Read-only listing: suppress the cursor highlight.
	styles := table.DefaultStyles()
	styles.Selected = styles.Cell
	t.SetStyles(styles)
	return t
}

// renderPartitionsPane renders the agents table or its empty state.
func (m Model) renderPartitionsPane() string {
	title := m.styles.SectionTitle.Render("Agents")
	if len(m.partitions) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.styles.Muted.Render("No agent partitions"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.partitionsTable.View())
}

// renderCorrectionsPane renders the latest supersessions, oldest
// content first and what replaced it.
func (m Model) renderCorrectionsPane() string {
	title := m.styles.SectionTitle.Render("Recent corrections")
	if len(m.corrections) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.styles.Muted.Render("None"))
	}

	lines := make([]string, 0, len(m.corrections)+1)
	lines = append(lines, title)
	for _, e := range m.corrections {
		replacement := e.Replacement
		if replacement == "" {
			replacement = "-"
		}
		line := fmt.Sprintf("[%s] %s -> %s", e.Tier, truncate(e.Content, 32), truncate(replacement, 32))
		if e.Reason != "" {
			line += " " + m.styles.Muted.Render("("+e.Reason+")")
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
