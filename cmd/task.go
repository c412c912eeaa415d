package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/ui"
	"github.com/zhubert/claudectl/internal/workspace"
)

var taskStart bool

var taskCmd = &cobra.Command{
	Use:   "task <name>",
	Short: "Create a worktree and branch for a task",
	Long: `Creates <worktree_root>/<repo>/<name> on a new branch <branch_prefix><name>.
The branch starts from origin/<current branch> when that exists (after a fetch
when fetch_before_task is set), otherwise from the current branch.

With --start a session is started in the new worktree and attached.`,
	Args: cobra.ExactArgs(1),
	RunE: runTask,
}

func init() {
	taskCmd.Flags().BoolVar(&taskStart, "start", false, "Start and attach a session in the new worktree")
	rootCmd.AddCommand(taskCmd)
}

func runTask(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := workspace.ValidateName(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, " \t") {
		return cerr.InvalidName("task name must not contain whitespace")
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := logger.WithComponent("task")
	client := env.git()
	if err := client.RequireRepository(); err != nil {
		return err
	}

	if env.settings.FetchBeforeTask && client.HasRemoteOrigin(ctx) {
		if err := client.FetchRemote(ctx); err != nil {
			log.Warn("fetch before task failed", "error", err)
			fmt.Fprintf(os.Stderr, "Warning: fetch failed, branching from local refs: %v\n", err)
		}
	}

	path := filepath.Join(env.settings.WorktreeRoot, client.RepositoryName(ctx), name)
	if client.WorktreeExists(ctx, path) {
		return cerr.AlreadyExists(fmt.Sprintf("worktree already exists at %s", path))
	}

	current, err := client.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	base := "origin/" + current
	if !client.RefExists(ctx, base) {
		base = current
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return cerr.StorageIO(filepath.Dir(path), err)
	}
	branch := env.settings.BranchPrefix + name
	if err := client.CreateWorktree(ctx, branch, path, base); err != nil {
		return err
	}
	fmt.Printf("Created worktree %s\n", path)
	fmt.Printf("  branch: %s (from %s)\n", ui.Render(ui.TitleStyle, branch), base)

	if !taskStart {
		return nil
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()
	s, err := mgr.NewSessionIn(ctx, nil, path)
	if err != nil {
		return err
	}
	fmt.Println(ui.Render(ui.SuccessStyle, "Started session "+s.ID))
	return attach(ctx, mgr, s.ID, paths.SessionLogPath(env.store.ConfigPath(), s.ID), os.Stdout, os.Stdin)
}
