package workspace

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/git"
	pexec "github.com/zhubert/claudectl/internal/exec"
)

func createTestRepo(t *testing.T) string {
	t.Helper()
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))

	dir := filepath.Join(t.TempDir(), "myrepo")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")
	run("checkout", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	run("add", ".")
	run("commit", "-m", "Initial commit")
	return dir
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "valid-name", false},
		{"spaces", "My Project", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"max length", strings.Repeat("a", 100), false},
		{"slash", "name/with/slash", true},
		{"backslash", `name\with`, true},
		{"null", "name\x00null", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !cerr.Is(err, cerr.KindInvalid) {
				t.Errorf("Expected KindInvalid, got %v", cerr.GetKind(err))
			}
		})
	}
}

func TestRollbackGuard(t *testing.T) {
	t.Run("rollback removes paths", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "created")
		if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
			t.Fatal(err)
		}
		var undone bool
		g := NewRollbackGuard(nil)
		g.Add(dir)
		g.OnRollback(func() { undone = true })
		g.Rollback()

		if exists(dir) {
			t.Error("Expected directory to be removed")
		}
		if !undone {
			t.Error("Expected compensating action to run")
		}
	})

	t.Run("commit disarms", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "kept")
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
		g := NewRollbackGuard(nil)
		g.Add(dir)
		g.OnRollback(func() { t.Error("compensating action should not run after Commit") })
		g.Commit()
		g.Rollback()

		if !exists(dir) {
			t.Error("Committed guard must leave the directory in place")
		}
	})
}

func TestInitialize(t *testing.T) {
	repo := createTestRepo(t)
	root := filepath.Join(t.TempDir(), "projects")
	client := git.NewClient(repo)
	o := New(client, root, "claudectl/")

	cfg, err := o.Initialize(context.Background(), "my workspace")
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	if cfg.Version != "1.0" || cfg.Name != "my workspace" || cfg.ID == "" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if want := filepath.Join(root, "myrepo", cfg.ID); cfg.WorktreePath != want {
		t.Errorf("WorktreePath = %q, want %q", cfg.WorktreePath, want)
	}
	if !exists(filepath.Join(repo, ".claudectl", "workspaces", cfg.ID, "config.json")) {
		t.Error("Expected config.json to be written")
	}
	if !client.WorktreeExists(context.Background(), cfg.WorktreePath) {
		t.Error("Expected worktree to be registered with git")
	}
	rec, ok, err := client.FindWorktreeByBranch(context.Background(), "claudectl/"+cfg.ID)
	if err != nil || !ok {
		t.Fatalf("Expected branch claudectl/%s, ok=%v err=%v", cfg.ID, ok, err)
	}
	if rec.Path != cfg.WorktreePath {
		t.Errorf("Branch worktree path = %q, want %q", rec.Path, cfg.WorktreePath)
	}

	list, err := o.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 || list[0].ID != cfg.ID {
		t.Errorf("List() = %+v", list)
	}

	if err := o.Remove(context.Background(), "my workspace"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if exists(cfg.WorktreePath) {
		t.Error("Expected worktree directory to be removed")
	}
	if list, _ := o.List(); len(list) != 0 {
		t.Errorf("Expected no workspaces after removal, got %d", len(list))
	}
}

func TestInitialize_WorktreeFailureRollsBack(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	repo := t.TempDir()
	if err := os.Mkdir(filepath.Join(repo, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(t.TempDir(), "projects")

	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"remote"}, pexec.MockResponse{Err: errors.New("exit status 2")})
	mock.AddPrefixMatch("git", []string{"symbolic-ref"}, pexec.MockResponse{Stdout: []byte("refs/heads/main\n")})
	mock.AddPrefixMatch("git", []string{"rev-parse"}, pexec.MockResponse{Stdout: []byte("main\n")})
	mock.AddPrefixMatch("git", []string{"worktree", "add"}, pexec.MockResponse{
		Stderr: []byte("fatal: a branch named 'claudectl/x' already exists"),
		Err:    errors.New("exit status 128"),
	})

	o := New(git.NewClientWithExecutor(repo, mock), root, "claudectl/")
	_, err := o.Initialize(context.Background(), "doomed")

	var gerr *git.Error
	if !errors.As(err, &gerr) || gerr.Action != git.ActionWorktreeAdd {
		t.Fatalf("Expected WorktreeAdd error, got %v", err)
	}
	if exists(filepath.Join(repo, ".claudectl")) {
		t.Error("Metadata directory should be rolled back")
	}
	if exists(root) {
		t.Error("Worktree parent directory should be rolled back")
	}
}

func TestInitialize_DetachedHeadRollsBack(t *testing.T) {
	repo := createTestRepo(t)
	cmd := exec.Command("git", "checkout", "--detach")
	cmd.Dir = repo
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(t.TempDir(), "projects")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatal(err)
	}

	o := New(git.NewClient(repo), root, "claudectl/")
	if _, err := o.Initialize(context.Background(), "ws"); !errors.Is(err, git.ErrDetachedHead) {
		t.Fatalf("Expected ErrDetachedHead, got %v", err)
	}
	if exists(filepath.Join(repo, ".claudectl")) {
		t.Error("Metadata directory should be rolled back")
	}
	if !exists(root) {
		t.Error("Pre-existing worktree root must not be removed")
	}
	if exists(filepath.Join(root, "myrepo")) {
		t.Error("Repository subdirectory created during init should be rolled back")
	}
}

func TestInitialize_NotARepository(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	o := New(git.NewClient(t.TempDir()), t.TempDir(), "claudectl/")
	if _, err := o.Initialize(context.Background(), "ws"); !cerr.Is(err, cerr.KindNotRepository) {
		t.Errorf("Expected not-a-repository error, got %v", err)
	}
}

func TestList_SortedAndSkipsBroken(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	repo := t.TempDir()
	o := New(git.NewClient(repo), t.TempDir(), "claudectl/")

	if list, err := o.List(); err != nil || len(list) != 0 {
		t.Fatalf("List() on fresh repo = %v, %v", list, err)
	}

	write := func(id, body string) {
		dir := filepath.Join(repo, ".claudectl", "workspaces", id)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("b", `{"id":"b","name":"second","created":"2024-02-01T00:00:00Z","version":"1.0","worktree_path":"/wt/b"}`)
	write("a", `{"id":"a","name":"first","created":"2024-01-01T00:00:00Z","version":"1.0","worktree_path":"/wt/a"}`)
	write("c", `{broken`)

	list, err := o.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 workspaces, got %d", len(list))
	}
	if list[0].Name != "first" || list[1].Name != "second" {
		t.Errorf("Expected creation order, got %s, %s", list[0].Name, list[1].Name)
	}

	if _, err := o.Get("missing"); !cerr.Is(err, cerr.KindNotFound) {
		t.Errorf("Expected not-found, got %v", err)
	}
}

func TestRemove_ListFailureKeepsMetadata(t *testing.T) {
	t.Setenv("CLAUDECTL_LOG", filepath.Join(t.TempDir(), "test.log"))
	repo := t.TempDir()
	metaDir := filepath.Join(repo, ".claudectl", "workspaces", "w1")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"id":"w1","name":"ws","created":"2024-01-01T00:00:00Z","version":"1.0","worktree_path":"/wt/w1"}`
	if err := os.WriteFile(filepath.Join(metaDir, "config.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	mock := pexec.NewMockExecutor(nil)
	mock.AddPrefixMatch("git", []string{"worktree", "list"}, pexec.MockResponse{
		Stderr: []byte("fatal: not a git repository"),
		Err:    errors.New("exit status 128"),
	})
	o := New(git.NewClientWithExecutor(repo, mock), t.TempDir(), "claudectl/")

	err := o.Remove(context.Background(), "ws")
	var gerr *git.Error
	if !errors.As(err, &gerr) || gerr.Action != git.ActionWorktreeList {
		t.Fatalf("Expected WorktreeList error, got %v", err)
	}
	if !exists(metaDir) {
		t.Error("Metadata must stay when the worktree could not be checked")
	}
}
