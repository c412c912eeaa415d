// Package paths resolves where claudectl keeps its files.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// MarkerDir is the project-local directory whose presence in the working
// directory selects project-local configuration.
const MarkerDir = ".claudectl"

// EnvConfigDir forces the configuration directory.
const EnvConfigDir = "CLAUDECTL_CONFIG_DIR"

// GlobalConfigDir returns the per-user configuration directory
// (os.UserConfigDir()/claudectl) without creating it.
func GlobalConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "claudectl"), nil
}

// ProjectDir returns the marker directory for root.
func ProjectDir(root string) string {
	return filepath.Join(root, MarkerDir)
}

// HasProjectDir reports whether root contains the marker directory.
func HasProjectDir(root string) bool {
	info, err := os.Stat(ProjectDir(root))
	return err == nil && info.IsDir()
}

// ResolveConfigDir picks the configuration directory for cwd: the
// EnvConfigDir override, then cwd/.claudectl if it exists, then the global
// directory, which is created when missing.
func ResolveConfigDir(cwd string) (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return dir, nil
	}
	if HasProjectDir(cwd) {
		return ProjectDir(cwd), nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// WorktreeRoot returns the default parent for agent worktrees,
// ~/.claudectl/projects.
func WorktreeRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, MarkerDir, "projects"), nil
}

// WorkspacesDir returns the metadata directory for workspaces under root.
func WorkspacesDir(root string) string {
	return filepath.Join(ProjectDir(root), "workspaces")
}

// SessionLogPath returns the file an attached session's output is copied
// to, under configDir/logs.
func SessionLogPath(configDir, sessionID string) string {
	return filepath.Join(configDir, "logs", sessionID+".log")
}
