package store

import (
	"path/filepath"
	"testing"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/model"
)

func TestMemory_RoundTrip(t *testing.T) {
	m := NewMemory()

	sd := model.NewSessionData()
	sd.Add(model.NewSession(nil))
	if err := m.SaveSessions(sd); err != nil {
		t.Fatalf("SaveSessions() error: %v", err)
	}

	got, err := m.LoadSessions()
	if err != nil {
		t.Fatal(err)
	}
	got.Sessions[0].Status = model.StatusError
	again, _ := m.LoadSessions()
	if again.Sessions[0].Status != model.StatusActive {
		t.Error("LoadSessions should return a copy")
	}
	if m.SaveCount() != 1 {
		t.Errorf("SaveCount() = %d, want 1", m.SaveCount())
	}
}

func TestMemory_ValidatesAndPrunes(t *testing.T) {
	m := NewMemory()
	if err := m.SaveSessions(model.SessionData{Sessions: []model.Session{{}}}); !cerr.Is(err, cerr.KindCorruption) {
		t.Errorf("Expected corruption error, got %v", err)
	}

	pd := model.NewProjectData()
	pd.Add(model.NewProject("gone", filepath.Join(t.TempDir(), "missing")))
	if err := m.SaveProjects(pd); err != nil {
		t.Fatal(err)
	}
	loaded, err := m.LoadProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Projects) != 0 || len(loaded.Pruned) != 1 {
		t.Errorf("Expected the stale project pruned, got %+v", loaded)
	}
}
