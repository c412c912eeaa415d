package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/paths"
)

// JSONStore is the file-backed Store.
type JSONStore struct {
	dir string
	log *slog.Logger

	now    func() time.Time
	rename func(oldpath, newpath string) error
}

// NewJSONStore returns a store rooted at dir. The directory must exist.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir:    dir,
		log:    logger.WithComponent("store"),
		now:    time.Now,
		rename: os.Rename,
	}
}

// Open resolves the configuration directory for cwd (project-local
// marker directory first, then the global one) and returns a store on it.
func Open(cwd string) (*JSONStore, error) {
	dir, err := paths.ResolveConfigDir(cwd)
	if err != nil {
		return nil, cerr.ConfigDirNotFound(err)
	}
	return NewJSONStore(dir), nil
}

// ConfigPath returns the directory holding the data files.
func (s *JSONStore) ConfigPath() string {
	return s.dir
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadProjects reads projects.json. A missing or empty file yields an
// empty collection. Stale projects are pruned and the result re-saved.
func (s *JSONStore) LoadProjects() (model.ProjectData, error) {
	contents, err := readIfPresent(s.path(ProjectsFile))
	if err != nil {
		return model.ProjectData{}, err
	}
	if contents == nil {
		// Older releases kept projects inside sessions.json.
		if legacy, ok := s.readLegacy(); ok {
			if err := s.migrate(legacy); err != nil {
				return model.ProjectData{}, err
			}
			return s.LoadProjects()
		}
		return model.NewProjectData(), nil
	}

	data := model.NewProjectData()
	if err := json.Unmarshal(contents, &data); err != nil {
		return model.ProjectData{}, cerr.Serialization(s.path(ProjectsFile), err)
	}
	if data.Projects == nil {
		data.Projects = []model.Project{}
	}
	if err := ValidateProjects(data); err != nil {
		return model.ProjectData{}, err
	}

	removed := data.PruneMissing()
	if len(removed) > 0 {
		s.log.Warn("pruned stale projects", "count", len(removed), "ids", removed)
		if err := s.SaveProjects(data); err != nil {
			return model.ProjectData{}, err
		}
	}
	data.UpdateStats()
	data.Pruned = removed
	return data, nil
}

// SaveProjects validates and atomically writes projects.json.
func (s *JSONStore) SaveProjects(data model.ProjectData) error {
	if err := ValidateProjects(data); err != nil {
		return err
	}
	data.UpdateStats()
	return s.write(ProjectsFile, data)
}

// LoadSessions reads sessions.json. A missing or empty file yields an
// empty collection. A file carrying a top-level "projects" key is the legacy
// combined format and is migrated; otherwise the current format is decoded.
// Anything neither decode accepts is quarantined and replaced by an empty
// collection.
func (s *JSONStore) LoadSessions() (model.SessionData, error) {
	contents, err := readIfPresent(s.path(SessionsFile))
	if err != nil {
		return model.SessionData{}, err
	}
	if contents == nil {
		return model.NewSessionData(), nil
	}

	if legacy, ok := decodeLegacy(contents); ok {
		if err := s.migrate(legacy); err != nil {
			return model.SessionData{}, err
		}
		_, sd := legacy.Split()
		return sd, nil
	}

	if data, ok := decodeSessions(contents); ok {
		if err := ValidateSessions(data); err != nil {
			return model.SessionData{}, err
		}
		data.UpdateStats()
		return data, nil
	}

	quarantined, err := s.quarantine(contents)
	if err != nil {
		s.log.Warn("failed to back up corrupted session data", "error", err)
	} else {
		s.log.Warn("session data unreadable, quarantined", "path", quarantined)
	}
	return model.NewSessionData(), nil
}

// SaveSessions validates and atomically writes sessions.json.
func (s *JSONStore) SaveSessions(data model.SessionData) error {
	if err := ValidateSessions(data); err != nil {
		return err
	}
	data.UpdateStats()
	if data.Sessions == nil {
		data.Sessions = []model.Session{}
	}
	return s.write(SessionsFile, data)
}

// decodeSessions parses the current format. Unknown fields are ignored so
// files written by newer releases still load.
func decodeSessions(contents []byte) (model.SessionData, bool) {
	dec := json.NewDecoder(bytes.NewReader(contents))

	var data model.SessionData
	if err := dec.Decode(&data); err != nil {
		return model.SessionData{}, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.SessionData{}, false
	}
	if data.Sessions == nil {
		return model.SessionData{}, false
	}
	return data, true
}

// decodeLegacy parses the combined format. All three top-level keys must
// be present; "projects" is what sets it apart from the current format.
func decodeLegacy(contents []byte) (model.AppData, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(contents, &keys); err != nil {
		return model.AppData{}, false
	}
	for _, k := range []string{"projects", "sessions", "stats"} {
		if _, ok := keys[k]; !ok {
			return model.AppData{}, false
		}
	}
	var legacy model.AppData
	if err := json.Unmarshal(contents, &legacy); err != nil {
		return model.AppData{}, false
	}
	return legacy, true
}

func (s *JSONStore) readLegacy() (model.AppData, bool) {
	contents, err := readIfPresent(s.path(SessionsFile))
	if err != nil || contents == nil {
		return model.AppData{}, false
	}
	return decodeLegacy(contents)
}

// migrate rewrites sessions.json in the current format and, when
// projects.json does not exist yet, moves the legacy projects there.
func (s *JSONStore) migrate(legacy model.AppData) error {
	pd, sd := legacy.Split()
	if err := ValidateSessions(sd); err != nil {
		return err
	}
	if _, err := os.Stat(s.path(ProjectsFile)); errors.Is(err, os.ErrNotExist) {
		if err := ValidateProjects(pd); err != nil {
			return err
		}
		if err := s.write(ProjectsFile, pd); err != nil {
			return err
		}
	}
	if err := s.write(SessionsFile, sd); err != nil {
		return err
	}
	s.log.Warn("migrated legacy session data", "sessions", len(sd.Sessions), "projects", len(pd.Projects))
	return nil
}

// write backs up the current file, writes name.tmp and renames it over name.
func (s *JSONStore) write(name string, v any) error {
	target := s.path(name)
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cerr.Serialization(target, err)
	}

	if _, err := os.Stat(target); err == nil {
		if err := copyFile(target, target+backupSuffix); err != nil {
			return cerr.StorageIO(target+backupSuffix, err)
		}
	}

	tmp := target + tmpSuffix
	if err := writeSynced(tmp, payload); err != nil {
		os.Remove(tmp)
		return cerr.StorageIO(tmp, err)
	}
	if err := s.rename(tmp, target); err != nil {
		os.Remove(tmp)
		return cerr.StorageIO(target, err)
	}
	return nil
}

// quarantine copies unreadable contents to a timestamped file that is
// never overwritten. It returns the path written.
func (s *JSONStore) quarantine(contents []byte) (string, error) {
	stamp := s.now().Format(quarantineLayout)
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("sessions_corrupted_%s.json.backup", stamp)
		if i > 0 {
			name = fmt.Sprintf("sessions_corrupted_%s_%d.json.backup", stamp, i)
		}
		p := s.path(name)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(contents); err != nil {
			f.Close()
			return "", err
		}
		return p, f.Close()
	}
	return "", fmt.Errorf("no free quarantine name for %s", stamp)
}

// readIfPresent returns nil contents for a missing or blank file.
func readIfPresent(path string) ([]byte, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.StorageIO(path, err)
	}
	if len(bytes.TrimSpace(contents)) == 0 {
		return nil, nil
	}
	return contents, nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
