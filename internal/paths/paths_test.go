package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigDir_ProjectLocal(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	cwd := t.TempDir()
	if err := os.Mkdir(filepath.Join(cwd, MarkerDir), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveConfigDir(cwd)
	if err != nil {
		t.Fatalf("ResolveConfigDir() error: %v", err)
	}
	if want := filepath.Join(cwd, MarkerDir); got != want {
		t.Errorf("ResolveConfigDir() = %q, want %q", got, want)
	}
}

func TestResolveConfigDir_Global(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	got, err := ResolveConfigDir(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveConfigDir() error: %v", err)
	}
	global, _ := GlobalConfigDir()
	if got != global {
		t.Errorf("ResolveConfigDir() = %q, want %q", got, global)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("Expected global dir to be created, stat err: %v", err)
	}
}

func TestResolveConfigDir_Override(t *testing.T) {
	want := filepath.Join(t.TempDir(), "forced")
	t.Setenv(EnvConfigDir, want)

	got, err := ResolveConfigDir(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveConfigDir() error: %v", err)
	}
	if got != want {
		t.Errorf("ResolveConfigDir() = %q, want %q", got, want)
	}
}

func TestWorktreeRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := WorktreeRoot()
	if err != nil {
		t.Fatalf("WorktreeRoot() error: %v", err)
	}
	if want := filepath.Join(home, ".claudectl", "projects"); got != want {
		t.Errorf("WorktreeRoot() = %q, want %q", got, want)
	}
}

func TestHasProjectDir(t *testing.T) {
	root := t.TempDir()
	if HasProjectDir(root) {
		t.Error("Expected no marker dir in fresh temp dir")
	}
	if err := os.WriteFile(filepath.Join(root, MarkerDir), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if HasProjectDir(root) {
		t.Error("A regular file should not count as the marker dir")
	}
}

func TestSessionLogPath(t *testing.T) {
	got := SessionLogPath("/cfg", "abc")
	if want := filepath.Join("/cfg", "logs", "abc.log"); got != want {
		t.Errorf("SessionLogPath() = %q, want %q", got, want)
	}
}
