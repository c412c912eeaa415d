package git

import (
	"fmt"
	"strings"

	cerr "github.com/zhubert/claudectl/internal/errors"
)

// Action names the git step that failed.
type Action string

const (
	ActionRepo           Action = "Repo"
	ActionFetch          Action = "Fetch"
	ActionWorktreeList   Action = "WorktreeList"
	ActionWorktreeAdd    Action = "WorktreeAdd"
	ActionWorktreeRemove Action = "WorktreeRemove"
	ActionBranch         Action = "Branch"
	ActionRemote         Action = "Remote"
)

// Error carries git's own diagnostic text for a failed step.
type Error struct {
	Action Action
	Stderr string // trimmed stderr from git, verbatim
	Err    error  // exec error (exit status or spawn failure)
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s failed: %s", e.Action, e.Stderr)
	}
	return fmt.Sprintf("git %s failed: %v", e.Action, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind places every git failure under cerr.KindGit.
func (e *Error) ErrorKind() cerr.Kind {
	return cerr.KindGit
}

func newError(action Action, stderr []byte, err error) *Error {
	return &Error{Action: action, Stderr: strings.TrimSpace(string(stderr)), Err: err}
}
