// Package model holds the persisted entities claudectl tracks: projects,
// agent sessions and the aggregate stats derived from them.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Project is a directory the user runs sessions against.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessed *time.Time `json:"last_accessed"`
}

// NewProject creates a project with a fresh identifier.
func NewProject(name, path string) Project {
	return Project{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
}

// Touch records an access at now.
func (p *Project) Touch(now time.Time) {
	t := now.UTC()
	p.LastAccessed = &t
}

// Exists reports whether the project path is still an existing directory.
// A project for which this is false is stale.
func (p Project) Exists() bool {
	info, err := os.Stat(p.Path)
	return err == nil && info.IsDir()
}

// SessionStatus is the persisted lifecycle state of a session.
type SessionStatus string

const (
	StatusActive  SessionStatus = "Active"
	StatusStopped SessionStatus = "Stopped"
	StatusError   SessionStatus = "Error"
)

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusStopped, StatusError:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown statuses so a file written by a newer
// release fails to parse instead of loading with an empty status.
func (s *SessionStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := SessionStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("unknown session status %q", raw)
	}
	*s = st
	return nil
}

// Session is one tracked run of the agent. ProjectID is nil for sessions
// that are not bound to a project.
type Session struct {
	ID        string        `json:"id"`
	ProjectID *string       `json:"project_id"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`

	// WorkDir overrides the project path as the agent's working directory,
	// e.g. for sessions running inside a workspace worktree.
	WorkDir string `json:"work_dir,omitempty"`

	// ActiveSince is set while the session is Active; RuntimeSecs
	// accumulates completed Active periods.
	ActiveSince *time.Time `json:"active_since,omitempty"`
	RuntimeSecs uint64     `json:"runtime_secs,omitempty"`
}

// NewSession creates an Active session.
func NewSession(projectID *string) Session {
	now := time.Now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		Status:    StatusActive,
		CreatedAt: now,
	}
	if projectID != nil {
		id := *projectID
		s.ProjectID = &id
	}
	s.ActiveSince = &now
	return s
}

// Activate moves the session to Active, starting a runtime period.
func (s *Session) Activate(now time.Time) {
	if s.Status == StatusActive && s.ActiveSince != nil {
		return
	}
	t := now.UTC()
	s.Status = StatusActive
	s.ActiveSince = &t
}

// Stop moves the session to Stopped.
func (s *Session) Stop(now time.Time) {
	s.leaveActive(now)
	s.Status = StatusStopped
}

// SetError moves the session to Error.
func (s *Session) SetError(now time.Time) {
	s.leaveActive(now)
	s.Status = StatusError
}

func (s *Session) leaveActive(now time.Time) {
	if s.ActiveSince == nil {
		return
	}
	if d := now.Sub(*s.ActiveSince); d > 0 {
		s.RuntimeSecs += uint64(d / time.Second)
	}
	s.ActiveSince = nil
}

// AppStats is derived from the collections and never edited by hand.
type AppStats struct {
	TotalProjects  int    `json:"total_projects"`
	ActiveSessions int    `json:"active_sessions"`
	TotalRuntime   uint64 `json:"total_runtime"`
}

// SessionStats is the session-only half of AppStats.
type SessionStats struct {
	ActiveSessions int    `json:"active_sessions"`
	TotalRuntime   uint64 `json:"total_runtime"`
}

// ProjectStats is the project-only half of AppStats.
type ProjectStats struct {
	TotalProjects int `json:"total_projects"`
}

// Runtime returns the accumulated runtime as a duration.
func (s SessionStats) Runtime() time.Duration {
	return time.Duration(s.TotalRuntime) * time.Second
}
