package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/ui"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print projects, sessions and stats as JSON",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	rootCmd.AddCommand(stateCmd)
}

// stateDump is the document printed by `state show`.
type stateDump struct {
	ConfigDir string          `json:"config_dir"`
	Projects  []model.Project `json:"projects"`
	Sessions  []model.Session `json:"sessions"`
	Stats     model.AppStats  `json:"stats"`
}

func runStateShow(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	dump := stateDump{
		ConfigDir: env.store.ConfigPath(),
		Projects:  mgr.Projects(),
		Sessions:  mgr.Sessions(),
		Stats:     mgr.Stats(),
	}
	if dump.Projects == nil {
		dump.Projects = []model.Project{}
	}
	if dump.Sessions == nil {
		dump.Sessions = []model.Session{}
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return cerr.Serialization("state", err)
	}
	fmt.Println(ui.HighlightJSON(string(data)))
	return nil
}
