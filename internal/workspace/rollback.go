package workspace

import (
	"log/slog"
	"os"
)

// RollbackGuard removes registered paths when a multi-step operation fails.
// Use it with defer:
//
//	guard := NewRollbackGuard(log)
//	defer guard.Rollback()
//	... guard.Add(dir) after each directory is created ...
//	guard.Commit()
//
// Rollback is a no-op once Commit has been called.
type RollbackGuard struct {
	paths     []string
	undo      []func()
	committed bool
	log       *slog.Logger
}

// NewRollbackGuard returns an armed guard.
func NewRollbackGuard(log *slog.Logger) *RollbackGuard {
	return &RollbackGuard{log: log}
}

// Add registers a path to remove on rollback.
func (g *RollbackGuard) Add(path string) {
	g.paths = append(g.paths, path)
}

// OnRollback registers a compensating action. Actions run before paths
// are removed, most recent first.
func (g *RollbackGuard) OnRollback(fn func()) {
	g.undo = append(g.undo, fn)
}

// Commit disarms the guard.
func (g *RollbackGuard) Commit() {
	g.committed = true
}

// Committed reports whether Commit was called.
func (g *RollbackGuard) Committed() bool {
	return g.committed
}

// Rollback undoes everything registered, in reverse order, unless committed.
func (g *RollbackGuard) Rollback() {
	if g.committed {
		return
	}
	for i := len(g.undo) - 1; i >= 0; i-- {
		g.undo[i]()
	}
	for i := len(g.paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(g.paths[i]); err != nil && g.log != nil {
			g.log.Warn("rollback failed to remove path", "path", g.paths[i], "error", err)
		}
	}
	g.undo = nil
	g.paths = nil
}
