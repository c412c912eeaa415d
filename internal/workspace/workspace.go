// Package workspace provisions isolated git worktrees for sessions and
// keeps a small metadata record for each one under .claudectl/workspaces.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/git"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/paths"
)

const (
	configFile    = "config.json"
	configVersion = "1.0"
	maxNameLength = 100
)

// Config is the metadata stored for each workspace.
type Config struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	Version      string    `json:"version"`
	WorktreePath string    `json:"worktree_path"`
}

// Orchestrator creates, lists and removes workspaces for one repository.
type Orchestrator struct {
	git          *git.Client
	worktreeRoot string
	branchPrefix string
	log          *slog.Logger

	newID func() string
}

// New returns an orchestrator. worktreeRoot is the per-user parent of all
// worktrees; each repository gets a subdirectory named after it.
func New(client *git.Client, worktreeRoot, branchPrefix string) *Orchestrator {
	return &Orchestrator{
		git:          client,
		worktreeRoot: worktreeRoot,
		branchPrefix: branchPrefix,
		log:          logger.WithComponent("workspace"),
		newID:        newWorkspaceID,
	}
}

func newWorkspaceID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// ValidateName checks a workspace name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return cerr.InvalidName("workspace name cannot be empty")
	case len(name) > maxNameLength:
		return cerr.InvalidName(fmt.Sprintf("workspace name too long (max %d characters)", maxNameLength))
	case strings.ContainsAny(name, `/\`):
		return cerr.InvalidName("workspace name cannot contain path separators")
	case strings.ContainsRune(name, 0):
		return cerr.InvalidName("workspace name cannot contain null characters")
	}
	return nil
}

// metadataDir returns the directory holding workspace records.
func (o *Orchestrator) metadataDir() string {
	return paths.WorkspacesDir(o.git.Repo())
}

// Initialize provisions a workspace: a metadata directory, a worktree
// under <worktreeRoot>/<repo>/<id> on a new branch <prefix><id> based on
// the current branch, and the config record. On any failure everything
// created so far is removed before the error is returned.
func (o *Orchestrator) Initialize(ctx context.Context, name string) (cfg Config, err error) {
	if err := ValidateName(name); err != nil {
		return Config{}, err
	}
	if err := o.git.RequireRepository(); err != nil {
		return Config{}, err
	}

	id := o.newID()
	log := o.log.With("workspaceID", id, "name", name)
	log.Info("initializing workspace")

	guard := NewRollbackGuard(log)
	defer func() {
		if !guard.Committed() {
			log.Warn("workspace initialization failed, rolling back", "error", err)
		}
		guard.Rollback()
	}()

	metaDir := filepath.Join(o.metadataDir(), id)
	if err := mkdirTracked(guard, metaDir); err != nil {
		return Config{}, err
	}

	repoName := o.git.RepositoryName(ctx)
	parent := filepath.Join(o.worktreeRoot, repoName)
	if err := mkdirTracked(guard, parent); err != nil {
		return Config{}, err
	}
	worktreePath := filepath.Join(parent, id)
	guard.Add(worktreePath)

	base, err := o.git.CurrentBranch(ctx)
	if err != nil {
		return Config{}, err
	}

	branch := o.branchPrefix + id
	if err := o.git.CreateWorktree(ctx, branch, worktreePath, base); err != nil {
		return Config{}, err
	}
	guard.OnRollback(func() {
		// The directory alone is not enough: git keeps worktree metadata.
		if rmErr := o.git.RemoveWorktree(context.Background(), worktreePath); rmErr != nil {
			log.Warn("rollback failed to remove worktree", "error", rmErr)
		}
	})

	cfg = Config{
		ID:           id,
		Name:         name,
		Created:      time.Now().UTC(),
		Version:      configVersion,
		WorktreePath: worktreePath,
	}
	if err := writeConfig(metaDir, cfg); err != nil {
		return Config{}, err
	}

	guard.Commit()
	log.Info("workspace initialized", "worktree", worktreePath, "branch", branch)
	return cfg, nil
}

// List returns every readable workspace record sorted by creation time.
// Unreadable records are logged and skipped.
func (o *Orchestrator) List() ([]Config, error) {
	entries, err := os.ReadDir(o.metadataDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.StorageIO(o.metadataDir(), err)
	}

	var configs []Config
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(o.metadataDir(), e.Name(), configFile)
		cfg, err := readConfig(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			o.log.Warn("failed to load workspace config", "path", p, "error", err)
			continue
		}
		configs = append(configs, cfg)
	}
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].Created.Before(configs[j].Created)
	})
	return configs, nil
}

// Get returns the workspace with the given ID or name.
func (o *Orchestrator) Get(ref string) (Config, error) {
	configs, err := o.List()
	if err != nil {
		return Config{}, err
	}
	for _, c := range configs {
		if c.ID == ref || c.Name == ref {
			return c, nil
		}
	}
	return Config{}, cerr.E(cerr.Op("workspace.Get"), cerr.KindNotFound, fmt.Sprintf("workspace %s not found", ref))
}

// Remove deletes the worktree and then the metadata record.
func (o *Orchestrator) Remove(ctx context.Context, ref string) error {
	cfg, err := o.Get(ref)
	if err != nil {
		return err
	}
	listed, err := o.git.CheckWorktree(ctx, cfg.WorktreePath)
	if err != nil {
		return err
	}
	if listed {
		if err := o.git.RemoveWorktree(ctx, cfg.WorktreePath); err != nil {
			return err
		}
	}
	metaDir := filepath.Join(o.metadataDir(), cfg.ID)
	if err := os.RemoveAll(metaDir); err != nil {
		return cerr.StorageIO(metaDir, err)
	}
	o.log.Info("workspace removed", "workspaceID", cfg.ID)
	return nil
}

// mkdirTracked creates dir and registers the outermost directory it had
// to create, so a rollback removes exactly what was added.
func mkdirTracked(guard *RollbackGuard, dir string) error {
	top := ""
	for p := dir; ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		top = p
		if filepath.Dir(p) == p {
			break
		}
	}
	if top == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return cerr.StorageIO(dir, err)
	}
	guard.Add(top)
	return nil
}

func writeConfig(dir string, cfg Config) error {
	p := filepath.Join(dir, configFile)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return cerr.Serialization(p, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return cerr.StorageIO(p, err)
	}
	return nil
}

func readConfig(p string) (Config, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", p, err)
	}
	return cfg, nil
}
