package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/ui"
)

var projectName string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage the projects sessions run against",
}

var projectAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a directory as a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

var projectRmCmd = &cobra.Command{
	Use:   "rm <project>",
	Short: "Forget a project (its sessions are kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRm,
}

func init() {
	projectAddCmd.Flags().StringVar(&projectName, "name", "", "Project name (defaults to the directory name)")
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRmCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	path := env.cwd
	if len(args) == 1 {
		path = args[0]
	}
	p, err := mgr.AddProject(path, projectName)
	if err != nil {
		return err
	}
	fmt.Printf("Added project %s (%s) at %s\n", ui.Render(ui.TitleStyle, p.Name), ui.ShortID(p.ID), p.Path)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	for _, id := range mgr.PrunedProjects() {
		fmt.Println(ui.Render(ui.WarningStyle, "Removed stale project "+ui.ShortID(id)+" (directory no longer exists)"))
	}

	projects := mgr.Projects()
	if len(projects) == 0 {
		fmt.Println("No projects. Add one with: claudectl project add [path]")
		return nil
	}

	counts := make(map[string]int)
	for _, s := range mgr.Sessions() {
		if s.ProjectID != nil {
			counts[*s.ProjectID]++
		}
	}
	fmt.Print(renderProjects(projects, counts, time.Now()))
	return nil
}

func renderProjects(projects []model.Project, counts map[string]int, now time.Time) string {
	tb := ui.NewTableBuilder([]string{"ID", "NAME", "PATH", "SESSIONS", "LAST USED"}, len(projects))
	for _, p := range projects {
		lastUsed := "never"
		if p.LastAccessed != nil {
			lastUsed = ui.FormatTimeAgo(*p.LastAccessed, now)
		}
		tb.AddRow(ui.ShortID(p.ID), p.Name, p.Path, fmt.Sprint(counts[p.ID]), lastUsed)
	}
	return tb.String()
}

func runProjectRm(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	p, err := mgr.FindProject(args[0])
	if err != nil {
		return err
	}
	if err := mgr.RemoveProject(p.ID); err != nil {
		return err
	}
	fmt.Printf("Removed project %s\n", p.Name)
	return nil
}
