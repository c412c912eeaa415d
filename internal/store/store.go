// Package store persists projects and sessions as JSON files under a
// configuration directory.
//
// Each data file is written by copying the previous file to a single
// ".backup", writing a ".tmp" sibling and renaming it over the target, so
// a crash leaves either the old or the new file, never a partial one.
package store

import (
	"github.com/zhubert/claudectl/internal/model"
)

const (
	SessionsFile = "sessions.json"
	ProjectsFile = "projects.json"

	backupSuffix = ".backup"
	tmpSuffix    = ".tmp"

	quarantineLayout = "20060102_150405"
)

// Storage persists projects.
type Storage interface {
	// LoadProjects returns the stored projects with stale entries pruned.
	// Pruned IDs are reported in ProjectData.Pruned.
	LoadProjects() (model.ProjectData, error)
	SaveProjects(data model.ProjectData) error
	ConfigPath() string
}

// SessionStorage persists sessions.
type SessionStorage interface {
	LoadSessions() (model.SessionData, error)
	SaveSessions(data model.SessionData) error
}

// Store is the full persistence surface the manager needs.
type Store interface {
	Storage
	SessionStorage
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*Memory)(nil)
)
