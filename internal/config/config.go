// Package config loads claudectl's settings file and manages the
// project descriptor written by `claudectl init`.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/process"
)

// SettingsFile is the settings file name inside the configuration directory.
const SettingsFile = "config.toml"

// EnvAgent overrides agent_command.
const EnvAgent = "CLAUDECTL_AGENT"

const (
	DefaultBranchPrefix = "claudectl/"
	DefaultStopTimeout  = "2s"
)

// Settings holds the user-editable configuration
type Settings struct {
	AgentCommand    string   `toml:"agent_command"`
	AgentArgs       []string `toml:"agent_args"`
	WorktreeRoot    string   `toml:"worktree_root"`
	BranchPrefix    string   `toml:"branch_prefix"`
	FetchBeforeTask bool     `toml:"fetch_before_task"`
	Notify          bool     `toml:"notify"`
	StopTimeout     string   `toml:"stop_timeout"`

	filePath string
}

// Defaults returns the settings used when config.toml is absent.
func Defaults() *Settings {
	root, err := paths.WorktreeRoot()
	if err != nil {
		root = filepath.Join(os.TempDir(), "claudectl", "projects")
	}
	return &Settings{
		AgentCommand:    process.DefaultCommand,
		AgentArgs:       []string{},
		WorktreeRoot:    root,
		BranchPrefix:    DefaultBranchPrefix,
		FetchBeforeTask: true,
		Notify:          true,
		StopTimeout:     DefaultStopTimeout,
	}
}

// Load reads dir/config.toml over the defaults. Keys missing from the file
// keep their default value; a missing file yields the defaults.
func Load(dir string) (*Settings, error) {
	s := Defaults()
	s.filePath = filepath.Join(dir, SettingsFile)

	data, err := os.ReadFile(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings %s: %w", s.filePath, err)
	}
	if err == nil {
		if _, err := toml.Decode(string(data), s); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", s.filePath, err)
		}
	}

	if agent := strings.TrimSpace(os.Getenv(EnvAgent)); agent != "" {
		s.AgentCommand = agent
	}
	s.WorktreeRoot = ExpandHome(s.WorktreeRoot)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings can drive a supervisor.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.AgentCommand) == "" {
		return fmt.Errorf("agent_command must not be empty")
	}
	d, err := time.ParseDuration(s.StopTimeout)
	if err != nil {
		return fmt.Errorf("invalid stop_timeout %q: %w", s.StopTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("stop_timeout must be positive, got %s", s.StopTimeout)
	}
	if strings.TrimSpace(s.WorktreeRoot) == "" {
		return fmt.Errorf("worktree_root must not be empty")
	}
	return nil
}

// Save writes the settings back to the file they were loaded from.
func (s *Settings) Save() error {
	if s.filePath == "" {
		return fmt.Errorf("settings have no file path")
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.filePath, buf.Bytes(), 0644)
}

// Path returns the settings file location.
func (s *Settings) Path() string {
	return s.filePath
}

// StopTimeoutDuration returns stop_timeout parsed. Validate has already
// rejected bad values, so a parse failure falls back to the default.
func (s *Settings) StopTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.StopTimeout)
	if err != nil || d <= 0 {
		return process.DefaultStopTimeout
	}
	return d
}

// ProcessConfig returns the supervisor configuration for these settings.
func (s *Settings) ProcessConfig() process.Config {
	return process.Config{
		Command:     s.AgentCommand,
		Args:        append([]string(nil), s.AgentArgs...),
		StopTimeout: s.StopTimeoutDuration(),
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
