// Package manager ties persisted projects and sessions to the agent
// processes that back them. The supervisor reports process facts; the
// manager owns every persisted status transition.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zhubert/claudectl/internal/config"
	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/notification"
	"github.com/zhubert/claudectl/internal/process"
	"github.com/zhubert/claudectl/internal/store"
)

// Options tune a Manager.
type Options struct {
	// Notifier is told about sessions that crash. Defaults to notification.Nop.
	Notifier notification.Notifier

	// Shared means other claudectl processes may own agents for persisted
	// Active sessions. Reconcile then only transitions sessions this
	// manager spawned.
	Shared bool
}

// Manager is the orchestration facade used by the CLI and the dashboard.
type Manager struct {
	store    store.Store
	sup      *process.Supervisor
	notifier notification.Notifier
	shared   bool
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	projects model.ProjectData
	sessions model.SessionData
	owned    map[string]bool
}

// New loads both collections from st.
func New(st store.Store, sup *process.Supervisor, opts Options) (*Manager, error) {
	projects, err := st.LoadProjects()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	sessions, err := st.LoadSessions()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	n := opts.Notifier
	if n == nil {
		n = notification.Nop{}
	}
	m := &Manager{
		store:    st,
		sup:      sup,
		notifier: n,
		shared:   opts.Shared,
		log:      logger.WithComponent("manager"),
		now:      time.Now,
		projects: projects,
		sessions: sessions,
		owned:    make(map[string]bool),
	}
	if len(projects.Pruned) > 0 {
		m.log.Warn("pruned stale projects", "count", len(projects.Pruned))
	}
	return m, nil
}

// Supervisor returns the underlying process supervisor.
func (m *Manager) Supervisor() *process.Supervisor {
	return m.sup
}

// saveProjectsLocked recomputes stats and persists projects.
func (m *Manager) saveProjectsLocked() error {
	m.projects.UpdateStats()
	return m.store.SaveProjects(m.projects)
}

// saveSessionsLocked recomputes stats and persists sessions.
func (m *Manager) saveSessionsLocked() error {
	m.sessions.UpdateStats()
	return m.store.SaveSessions(m.sessions)
}

// Projects returns a copy of all projects.
func (m *Manager) Projects() []model.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projects.Clone().Projects
}

// Sessions returns a copy of all sessions.
func (m *Manager) Sessions() []model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Clone().Sessions
}

// PrunedProjects returns the IDs of stale projects dropped when loading.
func (m *Manager) PrunedProjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.projects.Pruned...)
}

// Stats returns the aggregate counters.
func (m *Manager) Stats() model.AppStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Stats(m.projects, m.sessions)
}

// AddProject registers an existing directory. An empty name defaults to
// the directory's base name.
func (m *Manager) AddProject(path, name string) (model.Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Project{}, cerr.E(cerr.Op("manager.AddProject"), cerr.KindInvalid, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return model.Project{}, cerr.E(cerr.Op("manager.AddProject"), cerr.KindInvalid,
			fmt.Sprintf("%s is not an existing directory", abs))
	}
	if name == "" {
		name = config.DefaultProjectName(abs)
	}
	if err := config.ValidateProjectName(name); err != nil {
		return model.Project{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects.Projects {
		if p.Path == abs {
			return model.Project{}, cerr.AlreadyExists(fmt.Sprintf("project %q already tracks %s", p.Name, abs))
		}
	}

	p := model.NewProject(name, abs)
	m.projects.Add(p)
	if err := m.saveProjectsLocked(); err != nil {
		m.projects.Remove(p.ID)
		return model.Project{}, err
	}
	m.log.Info("added project", "projectID", p.ID, "name", name, "path", abs)
	return p, nil
}

// RemoveProject deletes a project record. Sessions bound to it keep their
// project ID.
func (m *Manager) RemoveProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.projects.Remove(id) {
		return projectNotFound(id)
	}
	m.log.Info("removed project", "projectID", id)
	return m.saveProjectsLocked()
}

// TouchProject records an access to a project.
func (m *Manager) TouchProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.projects.Get(id)
	if p == nil {
		return projectNotFound(id)
	}
	p.Touch(m.now())
	return m.saveProjectsLocked()
}

// FindProject resolves ref as a project ID, a unique ID prefix, or a name.
func (m *Manager) FindProject(ref string) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []model.Project
	for _, p := range m.projects.Projects {
		if p.ID == ref || p.Name == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 && ref != "" {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return model.Project{}, cerr.E(cerr.Op("manager.FindProject"), cerr.KindInvalid,
			fmt.Sprintf("project reference %q is ambiguous", ref))
	}
	return model.Project{}, projectNotFound(ref)
}

// FindSession resolves ref as a session ID or a unique ID prefix.
func (m *Manager) FindSession(ref string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.findSessionLocked(ref)
	if err != nil {
		return model.Session{}, err
	}
	return *s, nil
}

func (m *Manager) findSessionLocked(ref string) (*model.Session, error) {
	if s := m.sessions.Get(ref); s != nil {
		return s, nil
	}
	var match *model.Session
	for i := range m.sessions.Sessions {
		if ref != "" && strings.HasPrefix(m.sessions.Sessions[i].ID, ref) {
			if match != nil {
				return nil, cerr.E(cerr.Op("manager.FindSession"), cerr.KindInvalid,
					fmt.Sprintf("session reference %q is ambiguous", ref))
			}
			match = &m.sessions.Sessions[i]
		}
	}
	if match == nil {
		return nil, cerr.SessionNotFound(ref)
	}
	return match, nil
}

// workDirLocked picks where a session's agent runs: its own WorkDir, else
// its project's path, else the current directory.
func (m *Manager) workDirLocked(s *model.Session) string {
	if s.WorkDir != "" {
		return s.WorkDir
	}
	if s.ProjectID != nil {
		if p := m.projects.Get(*s.ProjectID); p != nil {
			return p.Path
		}
	}
	return ""
}

// NewSession creates an Active session and spawns its agent.
func (m *Manager) NewSession(ctx context.Context, projectID *string) (model.Session, error) {
	return m.NewSessionIn(ctx, projectID, "")
}

// NewSessionIn is NewSession with an explicit working directory, used for
// sessions that run inside a workspace worktree.
func (m *Manager) NewSessionIn(ctx context.Context, projectID *string, workDir string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if projectID != nil {
		p := m.projects.Get(*projectID)
		if p == nil {
			return model.Session{}, projectNotFound(*projectID)
		}
		p.Touch(m.now())
		if err := m.saveProjectsLocked(); err != nil {
			return model.Session{}, err
		}
	}

	s := model.NewSession(projectID)
	s.WorkDir = workDir
	m.sessions.Add(s)
	if err := m.saveSessionsLocked(); err != nil {
		m.sessions.Remove(s.ID)
		return model.Session{}, err
	}

	rec := m.sessions.Get(s.ID)
	log := logger.WithSession(s.ID)
	if err := m.spawnLocked(ctx, rec); err != nil {
		log.Error("spawn failed", "error", err)
		return *rec, err
	}
	log.Info("session created", "workDir", m.workDirLocked(rec))
	return *rec, nil
}

// spawnLocked starts rec's agent. On failure rec moves to Error and the
// transition is persisted; the spawn error is returned.
func (m *Manager) spawnLocked(ctx context.Context, rec *model.Session) error {
	err := m.sup.Restart(ctx, rec.ID, m.workDirLocked(rec))
	if err != nil {
		rec.SetError(m.now())
		if saveErr := m.saveSessionsLocked(); saveErr != nil {
			m.log.Error("failed to persist spawn failure", "sessionID", rec.ID, "error", saveErr)
		}
		return err
	}
	m.owned[rec.ID] = true
	rec.Activate(m.now())
	return m.saveSessionsLocked()
}

// StartSession spawns, or restarts, the agent for a Stopped or Error
// session and marks it Active.
func (m *Manager) StartSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.findSessionLocked(id)
	if err != nil {
		return err
	}
	if rec.Status == model.StatusActive && m.sup.IsRunning(rec.ID) {
		return cerr.SessionAlreadyRunning(rec.ID)
	}
	if err := m.spawnLocked(ctx, rec); err != nil {
		return err
	}
	logger.WithSession(rec.ID).Info("session started")
	return nil
}

// StopSession terminates the agent, if any, and marks the session Stopped.
func (m *Manager) StopSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.findSessionLocked(id)
	if err != nil {
		return err
	}
	if err := m.sup.Stop(rec.ID); err != nil && !cerr.Is(err, cerr.KindNotFound) {
		return err
	}
	delete(m.owned, rec.ID)
	rec.Stop(m.now())
	logger.WithSession(rec.ID).Info("session stopped")
	return m.saveSessionsLocked()
}

// DeleteSession stops the agent on a best-effort basis and removes the
// record regardless of its status.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.findSessionLocked(id)
	if err != nil {
		return err
	}
	sid := rec.ID
	if err := m.sup.Stop(sid); err != nil && !cerr.Is(err, cerr.KindNotFound) {
		m.log.Warn("stop before delete failed", "sessionID", sid, "error", err)
	}
	delete(m.owned, sid)
	m.sessions.Remove(sid)
	logger.WithSession(sid).Info("session deleted")
	return m.saveSessionsLocked()
}

// Reconcile moves every Active session whose agent is gone to Error,
// persists once if anything changed, and returns the transitioned IDs.
// The supervisor is polled under m.mu so a concurrent StartSession cannot
// respawn a session between the poll and the transition.
func (m *Manager) Reconcile() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := m.sup.ReconcileStatuses()

	now := m.now()
	var changed []string
	for i := range m.sessions.Sessions {
		s := &m.sessions.Sessions[i]
		if s.Status != model.StatusActive {
			continue
		}
		running, tracked := statuses[s.ID]
		if running {
			continue
		}
		if !tracked && m.shared && !m.owned[s.ID] {
			continue
		}
		s.SetError(now)
		delete(m.owned, s.ID)
		changed = append(changed, s.ID)
	}
	if len(changed) == 0 {
		return nil, nil
	}

	sort.Strings(changed)
	m.log.Warn("sessions exited unexpectedly", "sessionIDs", changed)
	err := m.saveSessionsLocked()
	for _, id := range changed {
		if nerr := m.notifier.SessionCrashed(id); nerr != nil {
			m.log.Debug("crash notification failed", "sessionID", id, "error", nerr)
		}
	}
	return changed, err
}

// RestoreSessions spawns an agent for every persisted Active session that
// has none. Sessions that fail to spawn move to Error; their IDs are
// returned.
func (m *Manager) RestoreSessions(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed []string
	for i := range m.sessions.Sessions {
		rec := &m.sessions.Sessions[i]
		if rec.Status != model.StatusActive || m.sup.IsRunning(rec.ID) {
			continue
		}
		if err := m.spawnLocked(ctx, rec); err != nil {
			logger.WithSession(rec.ID).Warn("restore failed", "error", err)
			failed = append(failed, rec.ID)
		}
	}
	return failed
}

// Output returns the captured output of a running session.
func (m *Manager) Output(id string) (string, bool) {
	return m.sup.Output(id)
}

// IsRunning reports whether the session's agent has a live handle.
func (m *Manager) IsRunning(id string) bool {
	return m.sup.IsRunning(id)
}

// ActiveCount returns the number of live agent handles.
func (m *Manager) ActiveCount() int {
	return m.sup.ActiveCount()
}

// Shutdown terminates every agent this process supervises.
func (m *Manager) Shutdown() error {
	return m.sup.CleanupAll()
}

func projectNotFound(id string) error {
	return cerr.E(cerr.Op("manager.FindProject"), cerr.KindNotFound, fmt.Sprintf("project %s not found", id))
}
