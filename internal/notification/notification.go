// Package notification sends desktop notifications through beeep
// (notify-send or D-Bus on Linux, AppleScript on macOS, toast on Windows).
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/zhubert/claudectl/internal/logger"
)

const appName = "claudectl"

// notifyFunc is swapped in tests.
var notifyFunc = func(title, message string, icon any) error {
	return beeep.Notify(title, message, icon)
}

// Notifier reports session events to the user.
type Notifier interface {
	SessionCrashed(sessionID string) error
}

// Desktop delivers notifications to the desktop.
type Desktop struct{}

// Nop discards notifications.
type Nop struct{}

func (Desktop) SessionCrashed(sessionID string) error { return SessionCrashed(sessionID) }

func (Nop) SessionCrashed(string) error { return nil }

// New returns a Desktop notifier when enabled, otherwise Nop.
func New(enabled bool) Notifier {
	if enabled {
		return Desktop{}
	}
	return Nop{}
}

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	log := logger.WithComponent("notification")
	log.Debug("sending notification", "title", title, "message", message)
	err := notifyFunc(title, message, "")
	if err != nil {
		log.Warn("failed to send notification", "error", err)
	}
	return err
}

// SessionCrashed announces that a session's agent exited without being
// stopped.
func SessionCrashed(sessionID string) error {
	return Send(appName, fmt.Sprintf("Session %s stopped unexpectedly", shortID(sessionID)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
