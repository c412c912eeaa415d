package model

// WorktreeRecord is one parsed row of `git worktree list`. It is rebuilt
// on every query and never persisted.
type WorktreeRecord struct {
	Path   string
	Commit string
	Branch string // empty for detached or bare worktrees
}
