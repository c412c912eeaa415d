// Package git wraps the git worktree commands claudectl uses to give each
// session its own checkout.
package git

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cerr "github.com/zhubert/claudectl/internal/errors"
	pexec "github.com/zhubert/claudectl/internal/exec"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/model"
)

// Client runs git in one repository.
type Client struct {
	repo     string
	executor pexec.CommandExecutor
	log      *slog.Logger
}

// NewClient returns a client for the repository at repo.
func NewClient(repo string) *Client {
	return NewClientWithExecutor(repo, pexec.NewRealExecutor())
}

// NewClientWithExecutor returns a client that runs commands through executor.
func NewClientWithExecutor(repo string, executor pexec.CommandExecutor) *Client {
	return &Client{
		repo:     repo,
		executor: executor,
		log:      logger.WithComponent("git"),
	}
}

// Repo returns the repository root the client operates on.
func (c *Client) Repo() string {
	return c.repo
}

func (c *Client) run(ctx context.Context, action Action, args ...string) (string, error) {
	stdout, stderr, err := c.executor.Run(ctx, c.repo, "git", args...)
	if err != nil {
		c.log.Debug("git command failed", "args", args, "error", err, "stderr", strings.TrimSpace(string(stderr)))
		return "", newError(action, stderr, err)
	}
	return string(stdout), nil
}

// CheckRepository reports whether the repository marker exists. It does
// not run git. Linked worktrees have a .git file rather than a directory.
func (c *Client) CheckRepository() bool {
	_, err := os.Stat(filepath.Join(c.repo, ".git"))
	return err == nil
}

// RequireRepository is CheckRepository as an error.
func (c *Client) RequireRepository() error {
	if !c.CheckRepository() {
		return cerr.NotRepository(c.repo)
	}
	return nil
}

// FetchRemote fetches origin.
func (c *Client) FetchRemote(ctx context.Context) error {
	c.log.Info("fetching origin", "repo", c.repo)
	_, err := c.run(ctx, ActionFetch, "fetch", "origin")
	return err
}

// ListWorktrees parses `git worktree list`.
func (c *Client) ListWorktrees(ctx context.Context) ([]model.WorktreeRecord, error) {
	out, err := c.run(ctx, ActionWorktreeList, "worktree", "list")
	if err != nil {
		return nil, err
	}
	return ParseWorktreeList(out), nil
}

// ParseWorktreeList parses rows of the form "<path> <commit> [<branch>]".
// Rows with fewer than two fields are skipped. A third field that is not
// bracketed (e.g. "(detached HEAD)" or "(bare)") leaves Branch empty.
func ParseWorktreeList(out string) []model.WorktreeRecord {
	var records []model.WorktreeRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		rec := model.WorktreeRecord{Path: fields[0], Commit: fields[1]}
		if len(fields) > 2 {
			b := fields[2]
			if strings.HasPrefix(b, "[") && strings.HasSuffix(b, "]") {
				rec.Branch = strings.TrimSuffix(strings.TrimPrefix(b, "["), "]")
			}
		}
		records = append(records, rec)
	}
	return records
}

// WorktreeExists reports whether path appears in the worktree listing.
// A listing failure counts as not existing.
func (c *Client) WorktreeExists(ctx context.Context, path string) bool {
	ok, err := c.CheckWorktree(ctx, path)
	return err == nil && ok
}

// CheckWorktree is WorktreeExists with the listing failure returned.
func (c *Client) CheckWorktree(ctx context.Context, path string) (bool, error) {
	out, err := c.run(ctx, ActionWorktreeList, "worktree", "list")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, path), nil
}

// CreateWorktree adds a worktree at path on a new branch rooted at baseRef.
func (c *Client) CreateWorktree(ctx context.Context, branch, path, baseRef string) error {
	c.log.Info("creating worktree", "branch", branch, "path", path, "base", baseRef)
	_, err := c.run(ctx, ActionWorktreeAdd, "worktree", "add", "-b", branch, path, baseRef)
	return err
}

// RemoveWorktree force-removes the worktree at path.
func (c *Client) RemoveWorktree(ctx context.Context, path string) error {
	c.log.Info("removing worktree", "path", path)
	_, err := c.run(ctx, ActionWorktreeRemove, "worktree", "remove", "--force", path)
	return err
}

// FindWorktreeByBranch returns the worktree checked out on branch.
func (c *Client) FindWorktreeByBranch(ctx context.Context, branch string) (model.WorktreeRecord, bool, error) {
	records, err := c.ListWorktrees(ctx)
	if err != nil {
		return model.WorktreeRecord{}, false, err
	}
	for _, r := range records {
		if r.Branch == branch {
			return r, true, nil
		}
	}
	return model.WorktreeRecord{}, false, nil
}

// ErrDetachedHead is returned by CurrentBranch when HEAD is not a branch.
var ErrDetachedHead = errors.New("in detached HEAD state, check out a branch first")

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	if _, err := c.run(ctx, ActionBranch, "symbolic-ref", "-q", "HEAD"); err != nil {
		return "", &Error{Action: ActionBranch, Err: ErrDetachedHead}
	}
	out, err := c.run(ctx, ActionBranch, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HasRemoteOrigin reports whether the repository has an origin remote.
func (c *Client) HasRemoteOrigin(ctx context.Context) bool {
	_, err := c.run(ctx, ActionRemote, "remote", "get-url", "origin")
	return err == nil
}

// RefExists reports whether ref resolves.
func (c *Client) RefExists(ctx context.Context, ref string) bool {
	_, err := c.run(ctx, ActionBranch, "rev-parse", "--verify", "--quiet", ref)
	return err == nil
}

// RepositoryName derives a name from the origin URL, falling back to the
// repository directory's base name.
func (c *Client) RepositoryName(ctx context.Context) string {
	out, err := c.run(ctx, ActionRemote, "remote", "get-url", "origin")
	if err == nil {
		if name := RepoNameFromURL(strings.TrimSpace(out)); name != "" {
			return name
		}
	}
	return filepath.Base(c.repo)
}

// RepoNameFromURL returns the last path segment of a remote URL without
// its .git suffix. It handles https and scp-style ssh URLs.
func RepoNameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		return url[i+1:]
	}
	return url
}
