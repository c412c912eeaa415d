package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/paths"
)

// ProjectFile is the descriptor written into the marker directory.
const ProjectFile = "project.json"

const maxProjectNameLen = 100

// invalidNameChars are rejected in project names.
const invalidNameChars = `/\:*?"<>|`

// ProjectDescriptor identifies a directory initialized with `claudectl init`.
type ProjectDescriptor struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultProjectName is the base name of dir.
func DefaultProjectName(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		return "untitled-project"
	}
	return name
}

// ValidateProjectName rejects blank, overlong, and path-hostile names.
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return cerr.E(cerr.Op("config.ValidateProjectName"), cerr.KindInvalid, "name cannot be empty")
	}
	if len(name) > maxProjectNameLen {
		return cerr.E(cerr.Op("config.ValidateProjectName"), cerr.KindInvalid,
			fmt.Sprintf("name too long (max %d characters)", maxProjectNameLen))
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return cerr.E(cerr.Op("config.ValidateProjectName"), cerr.KindInvalid, "name contains invalid characters")
	}
	return nil
}

func descriptorPath(dir string) string {
	return filepath.Join(paths.ProjectDir(dir), ProjectFile)
}

// InitProject creates dir/.claudectl/project.json. An empty name defaults
// to the directory's base name.
func InitProject(dir, name string) (ProjectDescriptor, error) {
	if name == "" {
		name = DefaultProjectName(dir)
	}
	if err := ValidateProjectName(name); err != nil {
		return ProjectDescriptor{}, err
	}

	p := descriptorPath(dir)
	if _, err := os.Stat(p); err == nil {
		return ProjectDescriptor{}, cerr.AlreadyExists(fmt.Sprintf("project already initialized at %s", dir))
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return ProjectDescriptor{}, cerr.StorageIO(filepath.Dir(p), err)
	}

	desc := ProjectDescriptor{Name: name, CreatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return ProjectDescriptor{}, cerr.Serialization(p, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ProjectDescriptor{}, cerr.AlreadyExists(fmt.Sprintf("project already initialized at %s", dir))
		}
		return ProjectDescriptor{}, cerr.StorageIO(p, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return ProjectDescriptor{}, cerr.StorageIO(p, err)
	}

	logger.WithComponent("config").Info("initialized project", "name", name, "dir", dir)
	return desc, nil
}

// LoadProject reads the descriptor from dir.
func LoadProject(dir string) (ProjectDescriptor, error) {
	p := descriptorPath(dir)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ProjectDescriptor{}, cerr.E(cerr.Op("config.LoadProject"), cerr.KindNotFound, "project.json not found", err)
		}
		return ProjectDescriptor{}, cerr.StorageIO(p, err)
	}
	var desc ProjectDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return ProjectDescriptor{}, cerr.Serialization(p, err)
	}
	return desc, nil
}
