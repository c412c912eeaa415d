package notification

import (
	"errors"
	"path/filepath"
	"testing"
)

type mockNotification struct {
	titles   []string
	messages []string
	err      error
}

func (m *mockNotification) notify(title, message string, icon any) error {
	m.titles = append(m.titles, title)
	m.messages = append(m.messages, message)
	return m.err
}

func withMock(t *testing.T, err error) *mockNotification {
	t.Helper()
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	m := &mockNotification{err: err}
	orig := notifyFunc
	notifyFunc = m.notify
	t.Cleanup(func() { notifyFunc = orig })
	return m
}

func TestSend(t *testing.T) {
	tests := []struct {
		name        string
		mockErr     error
		expectError bool
	}{
		{"success", nil, false},
		{"failure", errors.New("no dbus"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := withMock(t, tt.mockErr)
			err := Send("Title", "Message")
			if (err != nil) != tt.expectError {
				t.Errorf("Send() error = %v, expectError %v", err, tt.expectError)
			}
			if len(m.titles) != 1 || m.titles[0] != "Title" || m.messages[0] != "Message" {
				t.Errorf("Unexpected calls: %+v", m)
			}
		})
	}
}

func TestSessionCrashed(t *testing.T) {
	m := withMock(t, nil)
	if err := SessionCrashed("0123456789abcdef"); err != nil {
		t.Fatal(err)
	}
	if m.titles[0] != "claudectl" {
		t.Errorf("title = %q", m.titles[0])
	}
	if want := "Session 01234567 stopped unexpectedly"; m.messages[0] != want {
		t.Errorf("message = %q, want %q", m.messages[0], want)
	}
}

func TestNew(t *testing.T) {
	m := withMock(t, nil)
	if err := New(false).SessionCrashed("s1"); err != nil {
		t.Fatal(err)
	}
	if len(m.titles) != 0 {
		t.Error("Disabled notifier must not send")
	}
	if err := New(true).SessionCrashed("s1"); err != nil {
		t.Fatal(err)
	}
	if len(m.titles) != 1 {
		t.Errorf("Enabled notifier should send once, sent %d", len(m.titles))
	}
}
