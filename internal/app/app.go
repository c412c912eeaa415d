// Package app implements the `claudectl watch` dashboard: a live session
// table that reconciles agent state on a timer.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/claudectl/internal/clipboard"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/manager"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/ui"
)

// ReconcileInterval is how often the dashboard polls agent processes.
const ReconcileInterval = 500 * time.Millisecond

const flashDuration = 4 * time.Second

type (
	tickMsg       time.Time
	clearFlashMsg struct{ seq int }

	reconciledMsg struct {
		changed []string
		err     error
	}
	restoredMsg struct{ failed []string }
	actionMsg   struct {
		text string
		err  error
	}
)

// Options tune the dashboard.
type Options struct {
	// Restore respawns persisted Active sessions on start.
	Restore bool
}

// Model is the Bubble Tea model behind `claudectl watch`.
type Model struct {
	ctx  context.Context
	mgr  *manager.Manager
	keys keyMap
	log  *slog.Logger
	opts Options

	sessions []model.Session
	projects map[string]string
	cursor   int

	width  int
	height int

	output     viewport.Model
	showOutput bool

	pendingDelete string
	flash         string
	flashErr      bool
	flashSeq      int
}

// New builds a dashboard over mgr.
func New(ctx context.Context, mgr *manager.Manager, opts Options) *Model {
	vp := viewport.New()
	vp.SoftWrap = true
	m := &Model{
		ctx:        ctx,
		mgr:        mgr,
		keys:       defaultKeyMap(),
		log:        logger.WithComponent("app"),
		opts:       opts,
		output:     vp,
		showOutput: true,
	}
	m.refresh()
	return m
}

// Init starts the reconcile timer and, when asked, restores sessions.
func (m *Model) Init() tea.Cmd {
	if m.opts.Restore {
		return tea.Batch(m.restoreCmd(), tick())
	}
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(ReconcileInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) reconcileCmd() tea.Cmd {
	return func() tea.Msg {
		changed, err := m.mgr.Reconcile()
		return reconciledMsg{changed: changed, err: err}
	}
}

func (m *Model) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{failed: m.mgr.RestoreSessions(m.ctx)}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tickMsg:
		return m, m.reconcileCmd()

	case reconciledMsg:
		m.refresh()
		if msg.err != nil {
			return m, tea.Batch(m.setFlash("failed to save: "+msg.err.Error(), true), tick())
		}
		if len(msg.changed) > 0 {
			text := fmt.Sprintf("%d session(s) exited unexpectedly", len(msg.changed))
			return m, tea.Batch(m.setFlash(text, true), tick())
		}
		return m, tick()

	case restoredMsg:
		m.refresh()
		if len(msg.failed) > 0 {
			return m, m.setFlash(fmt.Sprintf("%d session(s) failed to restore", len(msg.failed)), true)
		}
		return m, nil

	case actionMsg:
		m.refresh()
		if msg.err != nil {
			m.log.Warn("dashboard action failed", "error", msg.err)
			return m, m.setFlash(msg.err.Error(), true)
		}
		return m, m.setFlash(msg.text, false)

	case clearFlashMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	confirmDelete := m.pendingDelete
	m.pendingDelete = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.updateOutput()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.sessions)-1 {
			m.cursor++
		}
		m.updateOutput()
		return m, nil

	case key.Matches(msg, m.keys.Output):
		m.showOutput = !m.showOutput
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.New):
		var projectID *string
		if s, ok := m.Selected(); ok && s.ProjectID != nil {
			projectID = s.ProjectID
		}
		return m, m.action(func() (string, error) {
			s, err := m.mgr.NewSession(m.ctx, projectID)
			if err != nil {
				return "", err
			}
			return "started session " + ui.ShortID(s.ID), nil
		})
	}

	s, ok := m.Selected()
	if !ok {
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Start):
		return m, m.action(func() (string, error) {
			return "started session " + ui.ShortID(s.ID), m.mgr.StartSession(m.ctx, s.ID)
		})

	case key.Matches(msg, m.keys.Stop):
		return m, m.action(func() (string, error) {
			return "stopped session " + ui.ShortID(s.ID), m.mgr.StopSession(s.ID)
		})

	case key.Matches(msg, m.keys.Delete):
		if confirmDelete != s.ID {
			m.pendingDelete = s.ID
			return m, m.setFlash("press d again to delete "+ui.ShortID(s.ID), false)
		}
		return m, m.action(func() (string, error) {
			return "deleted session " + ui.ShortID(s.ID), m.mgr.DeleteSession(s.ID)
		})

	case key.Matches(msg, m.keys.Copy):
		out, _ := m.mgr.Output(s.ID)
		return m, m.action(func() (string, error) {
			return "copied output", clipboard.WriteText(ui.CleanOutput(out))
		})
	}

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m *Model) action(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		return actionMsg{text: text, err: err}
	}
}

func (m *Model) setFlash(text string, isErr bool) tea.Cmd {
	m.flashSeq++
	m.flash, m.flashErr = text, isErr
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return clearFlashMsg{seq: seq} })
}

// refresh reloads the session list from the manager, keeping the cursor
// on the same session when it still exists.
func (m *Model) refresh() {
	var selected string
	if s, ok := m.Selected(); ok {
		selected = s.ID
	}

	m.sessions = m.mgr.Sessions()
	m.projects = make(map[string]string)
	for _, p := range m.mgr.Projects() {
		m.projects[p.ID] = p.Name
	}

	m.cursor = min(m.cursor, max(len(m.sessions)-1, 0))
	for i, s := range m.sessions {
		if s.ID == selected {
			m.cursor = i
			break
		}
	}
	m.updateOutput()
}

// Selected returns the session under the cursor.
func (m *Model) Selected() (model.Session, bool) {
	if m.cursor < 0 || m.cursor >= len(m.sessions) {
		return model.Session{}, false
	}
	return m.sessions[m.cursor], true
}

func (m *Model) updateOutput() {
	s, ok := m.Selected()
	if !ok {
		m.output.SetContent("")
		return
	}
	out, running := m.mgr.Output(s.ID)
	if !running {
		m.output.SetContent(ui.Render(ui.MutedStyle, "no live output for "+ui.ShortID(s.ID)))
		return
	}
	m.output.SetContent(ui.ColorizeOutput(out))
	m.output.GotoBottom()
}
