package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the mnemo dashboard.
type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultTheme returns the default terminal palette.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.Color("12"),  // Blue
		Success: lipgloss.Color("10"),  // Green
		Warning: lipgloss.Color("11"),  // Yellow
		Error:   lipgloss.Color("9"),   // Red
		Muted:   lipgloss.Color("240"), // Gray
	}
}

// Styles holds the pre-built lipgloss styles derived from a Theme.
type Styles struct {
	Title        lipgloss.Style
	SectionTitle lipgloss.Style
	Healthy      lipgloss.Style
	Unhealthy    lipgloss.Style
	Warning      lipgloss.Style
	Muted        lipgloss.Style
}

// newStyles builds the style set for a theme.
func newStyles(theme Theme) Styles {
	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		SectionTitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(1, 0, 0, 0),
		Healthy:      lipgloss.NewStyle().Foreground(theme.Success),
		Unhealthy:    lipgloss.NewStyle().Foreground(theme.Error),
		Warning:      lipgloss.NewStyle().Foreground(theme.Warning),
		Muted:        lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
