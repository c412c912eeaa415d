package store

import (
	"fmt"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/model"
)

// ValidateProjects rejects records with an empty ID or name.
func ValidateProjects(data model.ProjectData) error {
	for _, p := range data.Projects {
		if p.ID == "" {
			return cerr.DataCorruption("project with empty ID found")
		}
		if p.Name == "" {
			return cerr.DataCorruption(fmt.Sprintf("project %s has empty name", p.ID))
		}
	}
	return nil
}

// ValidateSessions rejects records with an empty ID.
func ValidateSessions(data model.SessionData) error {
	for _, s := range data.Sessions {
		if s.ID == "" {
			return cerr.DataCorruption("session with empty ID found")
		}
	}
	return nil
}
