package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/config"
	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/ui"
)

var initName string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project-local .claudectl directory here",
	Long: `Creates .claudectl/project.json in the current directory. From then on
claudectl keeps this directory's projects and sessions in .claudectl/ instead
of the per-user configuration directory.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (defaults to the directory name)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("error getting working directory: %w", err)
	}
	desc, err := config.InitProject(cwd, initName)
	if err != nil {
		return err
	}
	fmt.Printf("Initialized project %s in %s\n", ui.Render(ui.TitleStyle, desc.Name), paths.ProjectDir(cwd))
	return nil
}
