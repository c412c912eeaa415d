// Package logger wraps log/slog with a process-wide file logger.
// Nothing is written to the terminal: claudectl owns stdout for command
// output, so diagnostics go to a debug log file.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	slogLogger *slog.Logger
	levelVar   = new(slog.LevelVar)
	logFile    *os.File
	mu         sync.Mutex
	initDone   bool
	logPath    string
)

// DefaultLogPath returns the log file used when Init is not called.
// CLAUDECTL_LOG overrides it.
func DefaultLogPath() string {
	if p := os.Getenv("CLAUDECTL_LOG"); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "claudectl-debug.log")
}

// SetLevel sets the minimum level that reaches the log file.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// SetDebug enables debug level logging
func SetDebug(enabled bool) {
	if enabled {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetQuiet drops everything below Warn.
func SetQuiet() {
	SetLevel(slog.LevelWarn)
}

// Init opens path for appending and installs it as the log destination.
// Calling Init again after a successful call is a no-op.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if initDone {
		return nil
	}
	return openLocked(path)
}

func openLocked(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logFile = f
	logPath = path
	slogLogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	initDone = true
	slogLogger.Debug("logger initialized", "path", path)
	return nil
}

func ensureInitLocked() {
	if initDone {
		return
	}
	if err := openLocked(DefaultLogPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		// Mark done so every call does not retry and warn again.
		initDone = true
	}
}

// Path returns the active log file path, or "" before initialization.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Get returns the root logger, initializing the default file on first use.
// When no file can be opened it falls back to slog.Default().
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	ensureInitLocked()
	if slogLogger == nil {
		return slog.Default()
	}
	return slogLogger
}

// WithComponent returns a logger with the component attribute pre-attached.
//
//	log := logger.WithComponent("process")
//	log.Info("spawned agent", "sessionID", id, "pid", pid)
func WithComponent(component string) *slog.Logger {
	return Get().With(slog.String("component", component))
}

// WithSession returns a logger with the session ID pre-attached.
func WithSession(sessionID string) *slog.Logger {
	return Get().With(slog.String("sessionID", sessionID))
}

// Close closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	slogLogger = nil
}

// Reset resets the logger state, allowing reinitialization.
// This is primarily for testing purposes.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	initDone = false
	logPath = ""
	slogLogger = nil
	levelVar.Set(slog.LevelInfo)
}

// ClearLogs removes the default log file. It reports how many files were removed.
func ClearLogs() (int, error) {
	if err := os.Remove(DefaultLogPath()); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}
