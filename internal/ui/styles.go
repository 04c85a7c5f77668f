package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Default (white/black): primary text
// - Accent (soft purple #A78BFA): headers, view names
// - Muted (gray): secondary info, row counts
// - No colored success/error/warning - unicode symbols only

var (
	// Accent style for view names, column headers, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for secondary info, hints, row counts
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
)

// SetAccent overrides the accent color from configuration. Accepts ANSI
// color codes ("0" to "255") or hex colors ("#RRGGBB"); empty is a no-op.
func SetAccent(color string) {
	if color == "" {
		return
	}
	c := lipgloss.Color(color)
	Accent = Accent.Foreground(c)
	AccentBold = AccentBold.Foreground(c)
}
