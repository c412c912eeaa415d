// Package exec abstracts running external commands so callers can be
// tested against canned responses.
package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
)

// CommandExecutor runs external commands in a directory.
type CommandExecutor interface {
	// Run returns stdout and stderr separately.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
	// Output returns stdout. On failure the error includes stderr.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// CombinedOutput returns interleaved stdout and stderr.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

// NewRealExecutor returns the os/exec backed executor.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

func (RealExecutor) command(ctx context.Context, dir, name string, args ...string) *osexec.Cmd {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd
}

func (e RealExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := e.command(ctx, dir, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (e RealExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, stderr, err := e.Run(ctx, dir, name, args...)
	if err != nil {
		return stdout, WithStderr(err, stderr)
	}
	return stdout, nil
}

func (e RealExecutor) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return e.command(ctx, dir, name, args...).CombinedOutput()
}

// WithStderr attaches trimmed stderr text to err.
func WithStderr(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}

var _ CommandExecutor = (*RealExecutor)(nil)
