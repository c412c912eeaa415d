package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/claudectl/internal/keys"
	"github.com/zhubert/claudectl/internal/manager"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/process"
	"github.com/zhubert/claudectl/internal/store"
)

func writeAgent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"--version\" ]; then echo 'stub 1.0'; exit 0; fi\n" +
		body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestModel(t *testing.T, body string) (*Model, *manager.Manager) {
	t.Helper()
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	sup := process.NewSupervisor(process.Config{Command: writeAgent(t, body), StopTimeout: 500 * time.Millisecond})
	mgr, err := manager.New(store.NewMemory(), sup, manager.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mgr.Shutdown() })

	m := New(context.Background(), mgr, Options{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, mgr
}

func keyPress(k string) tea.KeyPressMsg {
	switch k {
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.CtrlC:
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	default:
		return tea.KeyPressMsg{Code: rune(k[0]), Text: k}
	}
}

// press sends a key and returns its command without running it.
func press(m *Model, k string) tea.Cmd {
	_, cmd := m.Update(keyPress(k))
	return cmd
}

// act sends a key bound to a manager action, runs the action and feeds
// the result back into the model.
func act(t *testing.T, m *Model, k string) actionMsg {
	t.Helper()
	cmd := press(m, k)
	if cmd == nil {
		t.Fatalf("%s: expected an action command", k)
	}
	msg, ok := cmd().(actionMsg)
	if !ok {
		t.Fatalf("%s: expected actionMsg, got %T", k, msg)
	}
	m.Update(msg)
	return msg
}

func TestView_Empty(t *testing.T) {
	m, _ := newTestModel(t, "exec sleep 30")
	out := m.RenderToString()
	if !strings.Contains(out, "No sessions") {
		t.Errorf("Expected empty-state hint, got:\n%s", out)
	}
	if !strings.Contains(out, "n: new") {
		t.Errorf("Expected footer bindings, got:\n%s", out)
	}
}

func TestNewStopStartDelete(t *testing.T) {
	m, mgr := newTestModel(t, "exec sleep 30")

	if msg := act(t, m, "n"); msg.err != nil {
		t.Fatalf("new session failed: %v", msg.err)
	}
	s, ok := m.Selected()
	if !ok || s.Status != model.StatusActive {
		t.Fatalf("Expected an active session selected, got %+v", s)
	}
	if !strings.Contains(m.RenderToString(), s.ID[:8]) {
		t.Error("Session should be listed")
	}

	act(t, m, "s")
	if s, _ = m.Selected(); s.Status != model.StatusStopped {
		t.Errorf("Status after stop = %s", s.Status)
	}

	act(t, m, "r")
	if s, _ = m.Selected(); s.Status != model.StatusActive || !mgr.IsRunning(s.ID) {
		t.Errorf("Status after start = %s, running=%v", s.Status, mgr.IsRunning(s.ID))
	}

	press(m, "d")
	if len(mgr.Sessions()) != 1 {
		t.Fatal("First d should only ask for confirmation")
	}
	act(t, m, "d")
	if len(mgr.Sessions()) != 0 {
		t.Error("Second d should delete the session")
	}
}

func TestDeleteConfirmationCancelledByOtherKey(t *testing.T) {
	m, mgr := newTestModel(t, "exec sleep 30")
	act(t, m, "n")
	press(m, "d")
	press(m, "j")
	press(m, "d")
	if len(mgr.Sessions()) != 1 {
		t.Error("Another key between presses should cancel the delete")
	}
}

func TestCursorNavigation(t *testing.T) {
	m, _ := newTestModel(t, "exec sleep 30")
	for i := 0; i < 3; i++ {
		act(t, m, "n")
	}

	m.cursor = 0
	press(m, "k")
	if m.cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.cursor)
	}
	press(m, "j")
	press(m, keys.Down)
	press(m, keys.Down)
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}
	press(m, keys.Up)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestReconcileFlagsCrash(t *testing.T) {
	m, _ := newTestModel(t, "exit 0")
	act(t, m, "n")

	deadline := time.Now().Add(5 * time.Second)
	for {
		msg := m.reconcileCmd()().(reconciledMsg)
		m.Update(msg)
		if len(msg.changed) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for reconcile")
		}
		time.Sleep(20 * time.Millisecond)
	}

	s, _ := m.Selected()
	if s.Status != model.StatusError {
		t.Errorf("Status = %s, want Error", s.Status)
	}
	if !strings.Contains(m.flash, "exited unexpectedly") || !m.flashErr {
		t.Errorf("flash = %q", m.flash)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, "exec sleep 30")
	for _, k := range []string{"q", keys.CtrlC} {
		_, cmd := m.Update(keyPress(k))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestClearFlashIgnoresStaleTimers(t *testing.T) {
	m, _ := newTestModel(t, "exec sleep 30")
	m.setFlash("first", false)
	stale := m.flashSeq
	m.setFlash("second", false)

	m.Update(clearFlashMsg{seq: stale})
	if m.flash != "second" {
		t.Errorf("Stale timer cleared the flash: %q", m.flash)
	}
	m.Update(clearFlashMsg{seq: m.flashSeq})
	if m.flash != "" {
		t.Errorf("Current timer should clear the flash, got %q", m.flash)
	}
}

func TestSessionRuntime(t *testing.T) {
	now := time.Now()
	since := now.Add(-10 * time.Second)
	s := model.Session{Status: model.StatusActive, ActiveSince: &since, RuntimeSecs: 5}
	if got := sessionRuntime(s, now); got != 15 {
		t.Errorf("sessionRuntime() = %d, want 15", got)
	}
	s.Status = model.StatusStopped
	if got := sessionRuntime(s, now); got != 5 {
		t.Errorf("sessionRuntime() stopped = %d, want 5", got)
	}
}
