package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/ui"
)

var (
	debugMode             bool
	quietMode             bool
	configDir             string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "claudectl",
	Short: "Run and supervise concurrent Claude sessions",
	Long: `claudectl tracks projects and Claude sessions, runs one agent process per
session, and gives each task its own git worktree so several agents can work
on the same repository without stepping on each other.

State lives in .claudectl/ when the current directory has one, otherwise in
the per-user configuration directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", true, "Enable debug logging (on by default)")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Use this configuration directory instead of resolving one")
}

func initConfig() {
	if quietMode {
		logger.SetQuiet()
	} else {
		logger.SetDebug(debugMode)
	}
	if configDir != "" {
		os.Setenv(paths.EnvConfigDir, configDir)
	}
	ui.SetColorEnabled(ui.DetectColor(os.Stdout))
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	defer logger.Close()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Render(ui.ErrorStyle, "Error: "+err.Error()))
	}
	return err
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("claudectl %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("claudectl %s\n", version)
}
