// Package clipboard copies session output to the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/zhubert/claudectl/internal/logger"
)

var (
	initOnce sync.Once
	initErr  error
)

// backend is swapped in tests; the real clipboard needs a display.
var backend = struct {
	init  func() error
	write func(text []byte)
	read  func() []byte
}{
	init:  clipboard.Init,
	write: func(text []byte) { clipboard.Write(clipboard.FmtText, text) },
	read:  func() []byte { return clipboard.Read(clipboard.FmtText) },
}

// Init initializes the clipboard. It is safe to call multiple times; the
// first result is returned on every call.
func Init() error {
	initOnce.Do(func() {
		if err := backend.init(); err != nil {
			logger.WithComponent("clipboard").Warn("failed to initialize", "error", err)
			initErr = fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	})
	return initErr
}

// WriteText writes text to the clipboard.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	backend.write([]byte(text))
	logger.WithComponent("clipboard").Debug("wrote text", "bytes", len(text))
	return nil
}

// ReadText reads text from the clipboard.
func ReadText() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	return string(backend.read()), nil
}
