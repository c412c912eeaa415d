package store

import (
	"sync"

	"github.com/zhubert/claudectl/internal/model"
)

// Memory is an in-process Store for tests and dry runs. It applies the
// same validation and pruning as JSONStore without touching disk.
type Memory struct {
	mu       sync.Mutex
	projects model.ProjectData
	sessions model.SessionData
	saves    int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		projects: model.NewProjectData(),
		sessions: model.NewSessionData(),
	}
}

func (m *Memory) ConfigPath() string { return "" }

func (m *Memory) LoadProjects() (model.ProjectData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.projects.Clone()
	data.Pruned = data.PruneMissing()
	if len(data.Pruned) > 0 {
		m.projects = data.Clone()
	}
	data.UpdateStats()
	return data, nil
}

func (m *Memory) SaveProjects(data model.ProjectData) error {
	if err := ValidateProjects(data); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = data.Clone()
	m.projects.UpdateStats()
	m.saves++
	return nil
}

func (m *Memory) LoadSessions() (model.SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Clone(), nil
}

func (m *Memory) SaveSessions(data model.SessionData) error {
	if err := ValidateSessions(data); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = data.Clone()
	m.sessions.UpdateStats()
	m.saves++
	return nil
}

// SaveCount reports how many saves succeeded.
func (m *Memory) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
