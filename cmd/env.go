package cmd

import (
	"fmt"
	"os"

	"github.com/zhubert/claudectl/internal/config"
	"github.com/zhubert/claudectl/internal/git"
	"github.com/zhubert/claudectl/internal/manager"
	"github.com/zhubert/claudectl/internal/notification"
	"github.com/zhubert/claudectl/internal/process"
	"github.com/zhubert/claudectl/internal/store"
	"github.com/zhubert/claudectl/internal/workspace"
)

// cliEnv is what most commands need: where they run, the resolved
// configuration directory and the settings in it.
type cliEnv struct {
	cwd      string
	store    *store.JSONStore
	settings *config.Settings
}

func loadEnv() (*cliEnv, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting working directory: %w", err)
	}
	st, err := store.Open(cwd)
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(st.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return &cliEnv{cwd: cwd, store: st, settings: settings}, nil
}

// manager builds a facade over the store. shared is true for one-shot
// commands, which must not flag sessions owned by another claudectl.
func (e *cliEnv) manager(shared bool) (*manager.Manager, error) {
	sup := process.NewSupervisor(e.settings.ProcessConfig())
	return manager.New(e.store, sup, manager.Options{
		Notifier: notification.New(e.settings.Notify),
		Shared:   shared,
	})
}

func (e *cliEnv) git() *git.Client {
	return git.NewClient(e.cwd)
}

func (e *cliEnv) workspaces() *workspace.Orchestrator {
	return workspace.New(e.git(), e.settings.WorktreeRoot, e.settings.BranchPrefix)
}
