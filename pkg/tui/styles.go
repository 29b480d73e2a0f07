package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive palette tuned for light and dark terminals.
var (
	colorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	colorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	colorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	colorGood    = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleHeader = lipgloss.NewStyle().
			Foreground(colorText)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorSubtext)

	styleValue = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleYear = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	styleClusterOn = lipgloss.NewStyle().
			Foreground(colorGood).
			Bold(true)

	styleClusterOff = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleFrame = lipgloss.NewStyle().
			Padding(0, 1)
)
