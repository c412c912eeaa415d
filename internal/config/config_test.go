package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cerr "github.com/zhubert/claudectl/internal/errors"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvAgent, "")
	dir := t.TempDir()

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.AgentCommand != "claude" {
		t.Errorf("AgentCommand = %q, want claude", s.AgentCommand)
	}
	if s.BranchPrefix != "claudectl/" || !s.FetchBeforeTask || !s.Notify {
		t.Errorf("Unexpected defaults: %+v", s)
	}
	if s.StopTimeoutDuration() != 2*time.Second {
		t.Errorf("StopTimeoutDuration() = %v, want 2s", s.StopTimeoutDuration())
	}
	if s.Path() != filepath.Join(dir, SettingsFile) {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestLoad_PartialFileOverridesOnlySetKeys(t *testing.T) {
	t.Setenv(EnvAgent, "")
	dir := t.TempDir()
	body := `branch_prefix = "agents/"
notify = false
stop_timeout = "750ms"
agent_args = ["--model", "opus"]
`
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.BranchPrefix != "agents/" || s.Notify {
		t.Errorf("Overrides not applied: %+v", s)
	}
	if s.AgentCommand != "claude" || !s.FetchBeforeTask {
		t.Errorf("Unset keys should keep defaults: %+v", s)
	}
	cfg := s.ProcessConfig()
	if cfg.StopTimeout != 750*time.Millisecond || strings.Join(cfg.Args, " ") != "--model opus" {
		t.Errorf("ProcessConfig() = %+v", cfg)
	}
}

func TestLoad_EnvOverridesAgent(t *testing.T) {
	t.Setenv(EnvAgent, "/opt/bin/my-agent")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(`agent_command = "other"`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.AgentCommand != "/opt/bin/my-agent" {
		t.Errorf("AgentCommand = %q, want env override", s.AgentCommand)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvAgent, "")
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "agent_command = "},
		{"empty agent", `agent_command = "  "`},
		{"bad timeout", `stop_timeout = "soon"`},
		{"negative timeout", `stop_timeout = "-1s"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Error("Expected Load() to fail")
			}
		})
	}
}

func TestSettings_SaveAndReload(t *testing.T) {
	t.Setenv(EnvAgent, "")
	dir := t.TempDir()
	s, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	s.BranchPrefix = "bots/"
	s.FetchBeforeTask = false
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if reloaded.BranchPrefix != "bots/" || reloaded.FetchBeforeTask {
		t.Errorf("Reloaded settings lost changes: %+v", reloaded)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/wt"); got != filepath.Join(home, "wt") {
		t.Errorf("ExpandHome(~/wt) = %q", got)
	}
	if got := ExpandHome("/abs/wt"); got != "/abs/wt" {
		t.Errorf("ExpandHome(/abs/wt) = %q", got)
	}
	if got := ExpandHome("~user/wt"); got != "~user/wt" {
		t.Errorf("ExpandHome(~user/wt) = %q", got)
	}
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "my-project", false},
		{"spaces", "My Project", false},
		{"blank", "   ", true},
		{"empty", "", true},
		{"max length", strings.Repeat("a", 100), false},
		{"too long", strings.Repeat("a", 101), true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"colon", "a:b", true},
		{"star", "a*b", true},
		{"question", "a?b", true},
		{"quote", `a"b`, true},
		{"angle", "a<b>", true},
		{"pipe", "a|b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !cerr.Is(err, cerr.KindInvalid) {
				t.Errorf("Expected KindInvalid, got %v", cerr.GetKind(err))
			}
		})
	}
}

func TestInitProject(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	dir := filepath.Join(t.TempDir(), "widgets")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}

	desc, err := InitProject(dir, "")
	if err != nil {
		t.Fatalf("InitProject() error: %v", err)
	}
	if desc.Name != "widgets" {
		t.Errorf("Name = %q, want directory name", desc.Name)
	}

	loaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject() error: %v", err)
	}
	if loaded.Name != desc.Name || !loaded.CreatedAt.Equal(desc.CreatedAt) {
		t.Errorf("LoadProject() = %+v, want %+v", loaded, desc)
	}

	if _, err := InitProject(dir, "again"); !cerr.Is(err, cerr.KindAlreadyExists) {
		t.Errorf("Second InitProject() should fail with AlreadyExists, got %v", err)
	}
}

func TestInitProject_InvalidNameWritesNothing(t *testing.T) {
	dir := t.TempDir()
	if _, err := InitProject(dir, "bad/name"); !cerr.Is(err, cerr.KindInvalid) {
		t.Fatalf("Expected KindInvalid, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".claudectl")); !os.IsNotExist(err) {
		t.Error("Invalid name must not create the marker directory")
	}
}

func TestLoadProject_Missing(t *testing.T) {
	if _, err := LoadProject(t.TempDir()); !cerr.Is(err, cerr.KindNotFound) {
		t.Errorf("Expected KindNotFound, got %v", err)
	}
}
