package app

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/ui"
)

// chrome is the number of lines taken by the header, table heading,
// flash and footer.
const chrome = 6

// View renders the dashboard.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current view as a string.
func (m *Model) RenderToString() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader(), m.renderTable()}
	if m.showOutput {
		sections = append(sections, ui.Render(ui.PanelStyle, m.output.View()))
	}
	sections = append(sections, m.renderFlash(), ui.RenderFooter(m.keys.footer(), m.width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	stats := m.mgr.Stats()
	summary := fmt.Sprintf("%d projects · %d active · %d running · runtime %s",
		stats.TotalProjects, stats.ActiveSessions, m.mgr.ActiveCount(), ui.FormatRuntime(stats.TotalRuntime))
	return ui.Render(ui.HeaderStyle, "claudectl") + " " + ui.Render(ui.MutedStyle, summary)
}

func (m *Model) renderTable() string {
	if len(m.sessions) == 0 {
		return ui.Render(ui.MutedStyle, "No sessions. Press n to start one.")
	}

	ids := make([]string, len(m.sessions))
	for i, s := range m.sessions {
		ids[i] = s.ID
	}
	prefixes := ui.UniqueIDPrefixLengths(ids)
	now := time.Now()

	tb := ui.NewTableBuilder([]string{"", "ID", "PROJECT", "STATUS", "RUNTIME", "CREATED"}, len(m.sessions))
	for i, s := range m.sessions {
		marker := " "
		if i == m.cursor {
			marker = ui.Render(ui.KeyStyle, "›")
		}
		tb.AddRow(
			marker,
			ui.HighlightID(ui.ShortID(s.ID), prefixes[strings.ToLower(s.ID)]),
			m.projectName(s),
			ui.StatusIcon(s.Status)+" "+ui.StatusBadge(s.Status),
			ui.FormatRuntime(sessionRuntime(s, now)),
			ui.FormatTimeAgo(s.CreatedAt, now),
		)
	}
	return strings.TrimSuffix(tb.String(), "\n")
}

func (m *Model) projectName(s model.Session) string {
	if s.ProjectID == nil {
		return "-"
	}
	if name, ok := m.projects[*s.ProjectID]; ok {
		return name
	}
	return ui.ShortID(*s.ProjectID) + " (removed)"
}

func (m *Model) renderFlash() string {
	if m.flash == "" {
		return ""
	}
	if m.flashErr {
		return ui.Render(ui.ErrorStyle, m.flash)
	}
	return ui.Render(ui.SuccessStyle, m.flash)
}

// layout sizes the output pane to the space left under the table.
func (m *Model) layout() {
	h := m.height - chrome - len(m.sessions) - 2
	m.output.SetWidth(max(m.width-4, 10))
	m.output.SetHeight(max(h, 3))
	m.updateOutput()
}

// sessionRuntime includes the current Active period.
func sessionRuntime(s model.Session, now time.Time) uint64 {
	total := s.RuntimeSecs
	if s.Status == model.StatusActive && s.ActiveSince != nil && now.After(*s.ActiveSince) {
		total += uint64(now.Sub(*s.ActiveSince) / time.Second)
	}
	return total
}
