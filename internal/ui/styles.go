package ui

import (
	"os"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/zhubert/claudectl/internal/model"
)

// Color palette - Purple + Cyan/Teal theme
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
	ColorText      = lipgloss.Color("#F9FAFB") // Light text
	ColorTextMuted = lipgloss.Color("#B0B8C4") // Muted text
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	KeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorBorder)

	statusStyles = map[model.SessionStatus]lipgloss.Style{
		model.StatusActive:  lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
		model.StatusStopped: lipgloss.NewStyle().Foreground(ColorMuted),
		model.StatusError:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
	}
)

// colorEnabled is decided once at startup by the CLI.
var colorEnabled = false

// SetColorEnabled turns styling on or off for every Render call.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// ColorEnabled reports whether styled output is on.
func ColorEnabled() bool {
	return colorEnabled
}

// DetectColor reports whether f is a terminal that accepts color.
// NO_COLOR and TERM=dumb disable it.
func DetectColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Render applies style when color is enabled.
func Render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// StatusBadge renders a session status.
func StatusBadge(status model.SessionStatus) string {
	style, ok := statusStyles[status]
	if !ok {
		return string(status)
	}
	return Render(style, string(status))
}

// StatusIcon returns a one-character marker for a status.
func StatusIcon(status model.SessionStatus) string {
	switch status {
	case model.StatusActive:
		return Render(statusStyles[status], "●")
	case model.StatusError:
		return Render(statusStyles[status], "✗")
	default:
		return Render(statusStyles[model.StatusStopped], "○")
	}
}
