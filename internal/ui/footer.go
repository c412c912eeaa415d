package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// FooterStyle pads the footer line.
var FooterStyle = lipgloss.NewStyle().
	Foreground(ColorTextMuted).
	Padding(0, 1)

// RenderFooter renders bindings as "key: desc" pairs separated by bars.
func RenderFooter(bindings []KeyBinding, width int) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, Render(KeyStyle, b.Key)+Render(MutedStyle, ": "+b.Desc))
	}
	sep := "  " + Render(lipgloss.NewStyle().Foreground(ColorBorder), "|") + "  "
	content := strings.Join(parts, sep)
	if !colorEnabled {
		return content
	}
	return FooterStyle.Width(width).Render(content)
}
