package process

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	pexec "github.com/zhubert/claudectl/internal/exec"
)

const psOutput = `    1     0 /sbin/init
  200     1 claude
  201   150 /usr/local/bin/claude --model opus
  202     1 /opt/bin/claude
  300     1 claude-helper
  abc     1 claude
`

func TestParsePS(t *testing.T) {
	procs := parsePS(psOutput, "claude")
	if len(procs) != 3 {
		t.Fatalf("Expected 3 agent processes, got %d: %+v", len(procs), procs)
	}
	if procs[1].PID != 201 || procs[1].PPID != 150 || procs[1].Command != "/usr/local/bin/claude --model opus" {
		t.Errorf("procs[1] = %+v", procs[1])
	}
}

func TestFindOrphanedAgents(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("ps", []string{}, pexec.MockResponse{Stdout: []byte(psOutput)})

	orphans, err := FindOrphanedAgents(context.Background(), mock, "claude", map[int]bool{202: true})
	if err != nil {
		t.Fatalf("FindOrphanedAgents() error: %v", err)
	}
	if len(orphans) != 1 || orphans[0].PID != 200 {
		t.Errorf("Expected only pid 200, got %+v", orphans)
	}
}

func TestFindOrphanedAgents_PSFailure(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("ps", []string{}, pexec.MockResponse{Err: errors.New("exit status 1")})

	if _, err := FindOrphanedAgents(context.Background(), mock, "claude", nil); err == nil {
		t.Error("Expected error when ps fails")
	}
}
