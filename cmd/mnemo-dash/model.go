package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mnemo/pkg/agent"
	"mnemo/pkg/correct"
	"mnemo/pkg/maintain"
)

// tickMsg fires on the periodic refresh interval.
type tickMsg time.Time

// healthMsg carries a refreshed health summary.
type healthMsg maintain.Summary

// partitionsMsg carries a refreshed partition listing. nil means the
// fetch failed and the previous listing is kept.
type partitionsMsg []agent.Info

// correctionsMsg carries a refreshed corrections feed. nil means the
// fetch failed and the previous feed is kept.
type correctionsMsg []correct.HistoryEntry

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchHealthCmd returns a tea.Cmd that loads the health summary.
func fetchHealthCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		sum, _ := fetchHealth(context.Background(), dbPath)
		return healthMsg(sum)
	}
}

// fetchPartitionsCmd returns a tea.Cmd that loads the partition listing.
func fetchPartitionsCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		infos, _ := fetchPartitions(context.Background(), dbPath)
		return partitionsMsg(infos)
	}
}

// fetchCorrectionsCmd returns a tea.Cmd that loads the corrections feed.
func fetchCorrectionsCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		entries, _ := fetchCorrections(context.Background(), dbPath)
		return correctionsMsg(entries)
	}
}

// Model is the Bubble Tea model for the mnemo dashboard.
type Model struct {
	dbPath string
	styles Styles

	health      maintain.Summary
	partitions  []agent.Info
	corrections []correct.HistoryEntry
	lastRefresh time.Time

	partitionsTable table.Model

	width  int
	height int
}

// newModel creates a Model bound to one store path.
func newModel(dbPath string) Model {
	return Model{
		dbPath:          dbPath,
		styles:          newStyles(DefaultTheme()),
		partitionsTable: newPartitionsTable(nil),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmds(), tickCmd(), watchStoreDir(m.dbPath))
}

// refreshCmds refetches every pane's data.
func (m Model) refreshCmds() tea.Cmd {
	return tea.Batch(
		fetchHealthCmd(m.dbPath),
		fetchPartitionsCmd(m.dbPath),
		fetchCorrectionsCmd(m.dbPath),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case healthMsg:
		m.health = maintain.Summary(msg)
		m.lastRefresh = time.Now()

	case partitionsMsg:
		if msg != nil {
			m.partitions = []agent.Info(msg)
			m.partitionsTable = newPartitionsTable(m.partitions)
		}

	case correctionsMsg:
		if msg != nil {
			m.corrections = []correct.HistoryEntry(msg)
		}

	case tickMsg:
		return m, tea.Batch(m.refreshCmds(), tickCmd())

	case fsChangeMsg:
		// The watcher closes itself after one message; re-arm it.
		return m, tea.Batch(m.refreshCmds(), watchStoreDir(m.dbPath))
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		return m, m.refreshCmds()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{
		m.styles.Title.Render("mnemo store"),
		m.renderStatusBar(),
		m.renderTiersPane(),
		m.renderPartitionsPane(),
		m.renderCorrectionsPane(),
		m.renderFooter(),
	}
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 && m.height > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(m.height).Render(view)
	}
	return view
}

// renderStatusBar renders the store path, health verdict, and backlog
// counts on one line.
func (m Model) renderStatusBar() string {
	verdict := m.styles.Healthy.Render("healthy")
	if !m.health.Healthy {
		verdict = m.styles.Unhealthy.Render("unhealthy")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		m.styles.Muted.Render(m.health.Path),
		lipgloss.NewStyle().Render(" | "),
		verdict,
		lipgloss.NewStyle().Render(" | staging: "),
		m.styles.Warning.Render(fmt.Sprintf("%d", m.health.StagingPending)),
		lipgloss.NewStyle().Render(" | superseded: "),
		m.styles.Warning.Render(fmt.Sprintf("%d", m.health.Superseded)),
		lipgloss.NewStyle().Render(" | "),
		m.styles.Muted.Render(sizeLabel(m.health.DBSizeBytes)),
	)
}

// renderFooter renders the key help and last refresh time.
func (m Model) renderFooter() string {
	help := "q quit, r refresh"
	if !m.lastRefresh.IsZero() {
		help += "   refreshed " + m.lastRefresh.Format("15:04:05")
	}
	return m.styles.Muted.Padding(1, 0, 0, 0).Render(help)
}
