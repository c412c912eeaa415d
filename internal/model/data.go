package model

// SessionData is the on-disk shape of sessions.json.
type SessionData struct {
	Sessions []Session    `json:"sessions"`
	Stats    SessionStats `json:"stats"`
}

// NewSessionData returns an empty collection.
func NewSessionData() SessionData {
	return SessionData{Sessions: []Session{}}
}

// Get returns a pointer into the collection, or nil.
func (d *SessionData) Get(id string) *Session {
	for i := range d.Sessions {
		if d.Sessions[i].ID == id {
			return &d.Sessions[i]
		}
	}
	return nil
}

// Add appends a session and recomputes stats.
func (d *SessionData) Add(s Session) {
	d.Sessions = append(d.Sessions, s)
	d.UpdateStats()
}

// Remove deletes a session by ID and reports whether it was present.
func (d *SessionData) Remove(id string) bool {
	for i, s := range d.Sessions {
		if s.ID == id {
			d.Sessions = append(d.Sessions[:i], d.Sessions[i+1:]...)
			d.UpdateStats()
			return true
		}
	}
	return false
}

// UpdateStats recomputes Stats from Sessions.
func (d *SessionData) UpdateStats() {
	d.Stats = sessionStats(d.Sessions)
}

// Clone returns a deep copy.
func (d SessionData) Clone() SessionData {
	out := SessionData{Sessions: make([]Session, len(d.Sessions)), Stats: d.Stats}
	for i, s := range d.Sessions {
		out.Sessions[i] = s.clone()
	}
	return out
}

func (s Session) clone() Session {
	if s.ProjectID != nil {
		id := *s.ProjectID
		s.ProjectID = &id
	}
	if s.ActiveSince != nil {
		t := *s.ActiveSince
		s.ActiveSince = &t
	}
	return s
}

// ProjectData is the on-disk shape of projects.json.
type ProjectData struct {
	Projects []Project    `json:"projects"`
	Stats    ProjectStats `json:"stats"`

	// Pruned lists the IDs of stale projects dropped by the last load.
	Pruned []string `json:"-"`
}

// NewProjectData returns an empty collection.
func NewProjectData() ProjectData {
	return ProjectData{Projects: []Project{}}
}

// Get returns a pointer into the collection, or nil.
func (d *ProjectData) Get(id string) *Project {
	for i := range d.Projects {
		if d.Projects[i].ID == id {
			return &d.Projects[i]
		}
	}
	return nil
}

// Add appends a project and recomputes stats.
func (d *ProjectData) Add(p Project) {
	d.Projects = append(d.Projects, p)
	d.UpdateStats()
}

// Remove deletes a project by ID and reports whether it was present.
func (d *ProjectData) Remove(id string) bool {
	for i, p := range d.Projects {
		if p.ID == id {
			d.Projects = append(d.Projects[:i], d.Projects[i+1:]...)
			d.UpdateStats()
			return true
		}
	}
	return false
}

// PruneMissing drops stale projects and returns their IDs.
func (d *ProjectData) PruneMissing() []string {
	var removed []string
	kept := d.Projects[:0]
	for _, p := range d.Projects {
		if p.Exists() {
			kept = append(kept, p)
		} else {
			removed = append(removed, p.ID)
		}
	}
	d.Projects = kept
	if len(removed) > 0 {
		d.UpdateStats()
	}
	return removed
}

// UpdateStats recomputes Stats from Projects.
func (d *ProjectData) UpdateStats() {
	d.Stats = ProjectStats{TotalProjects: len(d.Projects)}
}

// Clone returns a deep copy.
func (d ProjectData) Clone() ProjectData {
	out := ProjectData{Projects: make([]Project, len(d.Projects)), Stats: d.Stats}
	for i, p := range d.Projects {
		if p.LastAccessed != nil {
			t := *p.LastAccessed
			p.LastAccessed = &t
		}
		out.Projects[i] = p
	}
	out.Pruned = append([]string(nil), d.Pruned...)
	return out
}

// AppData is the legacy combined format that older releases wrote to
// sessions.json. It is only read for migration.
type AppData struct {
	Projects []Project `json:"projects"`
	Sessions []Session `json:"sessions"`
	Stats    AppStats  `json:"stats"`
}

// Split converts legacy data into the current per-file shapes.
func (a AppData) Split() (ProjectData, SessionData) {
	pd := ProjectData{Projects: append([]Project{}, a.Projects...)}
	sd := SessionData{Sessions: append([]Session{}, a.Sessions...)}
	pd.UpdateStats()
	sd.UpdateStats()
	return pd, sd
}

// Stats combines both halves into the aggregate view.
func Stats(p ProjectData, s SessionData) AppStats {
	ss := sessionStats(s.Sessions)
	return AppStats{
		TotalProjects:  len(p.Projects),
		ActiveSessions: ss.ActiveSessions,
		TotalRuntime:   ss.TotalRuntime,
	}
}

func sessionStats(sessions []Session) SessionStats {
	var st SessionStats
	for _, s := range sessions {
		if s.Status == StatusActive {
			st.ActiveSessions++
		}
		st.TotalRuntime += s.RuntimeSecs
	}
	return st
}
