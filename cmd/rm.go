package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cerr "github.com/zhubert/claudectl/internal/errors"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm <branch>",
	Short: "Remove the worktree checked out on a branch",
	Long: `Finds the worktree for <branch> and removes it. A bare task name is also
accepted and is looked up with the configured branch prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client := env.git()
	if err := client.RequireRepository(); err != nil {
		return err
	}

	branch := args[0]
	rec, ok, err := client.FindWorktreeByBranch(ctx, branch)
	if err != nil {
		return err
	}
	if !ok {
		branch = env.settings.BranchPrefix + args[0]
		if rec, ok, err = client.FindWorktreeByBranch(ctx, branch); err != nil {
			return err
		}
	}
	if !ok {
		return cerr.E(cerr.Op("cmd.Rm"), cerr.KindNotFound, fmt.Sprintf("no worktree for branch %s", args[0]))
	}

	fmt.Printf("Worktree: %s\nBranch:   %s\n", rec.Path, rec.Branch)
	if !rmYes && !confirmAction("Remove this worktree?") {
		fmt.Println("Aborted.")
		return nil
	}
	if err := client.RemoveWorktree(ctx, rec.Path); err != nil {
		return err
	}
	fmt.Println("Removed " + rec.Path)
	return nil
}
