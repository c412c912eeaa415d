package cmd

import (
	"io"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"lowercase y", "y\n", true},
		{"uppercase Y", "Y\n", true},
		{"lowercase yes", "yes\n", true},
		{"mixed case Yes", "Yes\n", true},
		{"no trailing newline", "y", true},
		{"lowercase n", "n\n", false},
		{"lowercase no", "no\n", false},
		{"empty input", "\n", false},
		{"random text", "maybe\n", false},
		{"y with spaces", "  y  \n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confirm(strings.NewReader(tt.input), "Test?"); got != tt.expected {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfirm_EOF(t *testing.T) {
	if confirm(strings.NewReader(""), "Test?") {
		t.Error("confirm(EOF) = true, want false")
	}
}

func TestConfirm_ErrorReader(t *testing.T) {
	if confirm(&errorReader{}, "Test?") {
		t.Error("confirm(error) = true, want false")
	}
}

// errorReader is a reader that always returns an error
type errorReader struct{}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}
