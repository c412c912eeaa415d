package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/ui"
)

var workspaceYes bool

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage isolated worktrees for sessions in this repository",
}

var workspaceNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a workspace with its own worktree and branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceNew,
}

var workspaceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List workspaces",
	Args:    cobra.NoArgs,
	RunE:    runWorkspaceList,
}

var workspaceRmCmd = &cobra.Command{
	Use:   "rm <workspace>",
	Short: "Remove a workspace and its worktree",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkspaceRm,
}

func init() {
	workspaceRmCmd.Flags().BoolVarP(&workspaceYes, "yes", "y", false, "Skip confirmation prompt")
	workspaceCmd.AddCommand(workspaceNewCmd, workspaceListCmd, workspaceRmCmd)
	rootCmd.AddCommand(workspaceCmd)
}

func runWorkspaceNew(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	cfg, err := env.workspaces().Initialize(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Created workspace %s (%s)\n", ui.Render(ui.TitleStyle, cfg.Name), cfg.ID)
	fmt.Printf("  worktree: %s\n", cfg.WorktreePath)
	fmt.Printf("  branch:   %s%s\n", env.settings.BranchPrefix, cfg.ID)
	return nil
}

func runWorkspaceList(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	configs, err := env.workspaces().List()
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		fmt.Println("No workspaces. Create one with: claudectl workspace new <name>")
		return nil
	}

	now := time.Now()
	tb := ui.NewTableBuilder([]string{"ID", "NAME", "CREATED", "WORKTREE"}, len(configs))
	for _, c := range configs {
		tb.AddRow(ui.ShortID(c.ID), c.Name, ui.FormatTimeAgo(c.Created, now), c.WorktreePath)
	}
	fmt.Print(tb.String())
	return nil
}

func runWorkspaceRm(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	ws := env.workspaces()
	cfg, err := ws.Get(args[0])
	if err != nil {
		return err
	}
	if !workspaceYes && !confirmAction(fmt.Sprintf("Remove workspace %s and %s?", cfg.Name, cfg.WorktreePath)) {
		fmt.Println("Aborted.")
		return nil
	}
	if err := ws.Remove(cmd.Context(), cfg.ID); err != nil {
		return err
	}
	fmt.Println("Removed workspace " + cfg.Name)
	return nil
}
