package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List this repository's worktrees with their sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	client := env.git()
	if err := client.RequireRepository(); err != nil {
		return err
	}
	records, err := client.ListWorktrees(cmd.Context())
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	fmt.Print(renderWorktrees(records, mgr.Sessions(), mgr.Projects()))
	return nil
}

// renderWorktrees shows one row per worktree. A session belongs to a
// worktree when it runs there, either directly or through its project.
func renderWorktrees(records []model.WorktreeRecord, sessions []model.Session, projects []model.Project) string {
	projectPaths := make(map[string]string, len(projects))
	for _, p := range projects {
		projectPaths[p.ID] = filepath.Clean(p.Path)
	}
	byDir := make(map[string][]model.Session)
	for _, s := range sessions {
		dir := s.WorkDir
		if dir == "" && s.ProjectID != nil {
			dir = projectPaths[*s.ProjectID]
		}
		if dir != "" {
			dir = filepath.Clean(dir)
			byDir[dir] = append(byDir[dir], s)
		}
	}

	tb := ui.NewTableBuilder([]string{"BRANCH", "COMMIT", "SESSIONS", "PATH"}, len(records))
	for _, r := range records {
		branch := r.Branch
		if branch == "" {
			branch = ui.Render(ui.MutedStyle, "(detached)")
		}
		tb.AddRow(branch, r.Commit, sessionSummary(byDir[filepath.Clean(r.Path)]), r.Path)
	}
	return tb.String()
}

func sessionSummary(sessions []model.Session) string {
	if len(sessions) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(sessions))
	for _, s := range sessions {
		parts = append(parts, ui.ShortID(s.ID)+" "+ui.StatusBadge(s.Status))
	}
	return strings.Join(parts, ", ")
}
