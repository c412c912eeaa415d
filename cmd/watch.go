package cmd

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/app"
	"github.com/zhubert/claudectl/internal/logger"
)

var watchNoRestore bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live session dashboard",
	Long: `Opens a dashboard that lists every session and reconciles agent processes
twice a second. Sessions left Active by an earlier run are restarted unless
--no-restore is given. Quitting the dashboard stops the agents it runs; their
sessions stay Active and are restored next time.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoRestore, "no-restore", false, "Do not restart sessions left Active")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(false)
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			logger.Get().Warn("shutdown failed", "error", err)
		}
	}()

	m := app.New(cmd.Context(), mgr, app.Options{Restore: !watchNoRestore})
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}
