// Package errors provides structured error types for claudectl.
// Every error carries the operation that failed and a Kind that callers
// can branch on without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota

	// Process supervision
	KindNotFound
	KindAlreadyRunning
	KindExecutableNotFound
	KindSpawn

	// Storage
	KindIO
	KindSerialization
	KindConfigDir
	KindCorruption

	// Workspace / version control
	KindNotRepository
	KindGit
	KindInvalid
	KindAlreadyExists
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyRunning:
		return "already running"
	case KindExecutableNotFound:
		return "executable not found"
	case KindSpawn:
		return "spawn failed"
	case KindIO:
		return "I/O error"
	case KindSerialization:
		return "serialization error"
	case KindConfigDir:
		return "configuration directory not found"
	case KindCorruption:
		return "data corruption"
	case KindNotRepository:
		return "not a git repository"
	case KindGit:
		return "git error"
	case KindInvalid:
		return "invalid"
	case KindAlreadyExists:
		return "already exists"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for claudectl.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind. Errors created without a
// Kind are transparent: the check continues into the wrapped error.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// Kinder is implemented by error types outside this package that belong to
// a Kind, such as git.Error.
type Kinder interface {
	ErrorKind() Kind
}

// GetKind returns the first non-unknown Kind in the error chain.
func GetKind(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.Kind != KindUnknown {
				return e.Kind
			}
		case Kinder:
			if k := e.ErrorKind(); k != KindUnknown {
				return k
			}
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// Process errors
func SessionNotFound(id string) error {
	return E(Op("process.Stop"), KindNotFound, fmt.Sprintf("session %s not found", id))
}

func SessionAlreadyRunning(id string) error {
	return E(Op("process.Spawn"), KindAlreadyRunning, fmt.Sprintf("session %s is already running", id))
}

func ExecutableNotFound(name string, err error) error {
	if err == nil {
		return E(Op("process.Probe"), KindExecutableNotFound, fmt.Sprintf("agent executable '%s' not found in PATH", name))
	}
	return E(Op("process.Probe"), KindExecutableNotFound, fmt.Sprintf("agent executable '%s' not found in PATH", name), err)
}

func SpawnFailed(sessionID string, err error) error {
	return E(Op("process.Spawn"), KindSpawn, fmt.Sprintf("failed to start agent for session %s", sessionID), err)
}

// Storage errors
func StorageIO(path string, err error) error {
	return E(Op("store.IO"), KindIO, path, err)
}

func Serialization(path string, err error) error {
	return E(Op("store.Encode"), KindSerialization, path, err)
}

func ConfigDirNotFound(err error) error {
	return E(Op("store.ResolveDir"), KindConfigDir, "no usable configuration directory", err)
}

func DataCorruption(reason string) error {
	return E(Op("store.Validate"), KindCorruption, reason)
}

// Workspace errors
func NotRepository(path string) error {
	return E(Op("git.CheckRepository"), KindNotRepository, fmt.Sprintf("%s is not a git repository", path))
}

func InvalidName(reason string) error {
	return E(Op("workspace.ValidateName"), KindInvalid, reason)
}

func AlreadyExists(what string) error {
	return E(Op("config.Init"), KindAlreadyExists, what)
}
