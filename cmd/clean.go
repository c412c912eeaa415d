package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pexec "github.com/zhubert/claudectl/internal/exec"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/process"
)

var skipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Kill orphaned agent processes and clear debug logs",
	Long: `Finds agent processes that outlived the claudectl that started them (they
have been reparented to init) and kills them, then removes the debug log.

It will prompt for confirmation before proceeding unless the --yes flag is used.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	executor := pexec.NewRealExecutor()
	agent := env.settings.AgentCommand

	orphans, err := process.FindOrphanedAgents(ctx, executor, agent, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error finding orphaned processes: %v\n", err)
	}

	fmt.Println("This will clean:")
	fmt.Printf("  - %d orphaned agent process(es)\n", len(orphans))
	for _, p := range orphans {
		fmt.Printf("      PID %d  %s\n", p.PID, p.Command)
	}
	fmt.Printf("  - the debug log %s\n", logger.DefaultLogPath())

	if !skipConfirm && !confirmAction("Continue?") {
		fmt.Println("Aborted.")
		return nil
	}

	var killed int
	if len(orphans) > 0 {
		killed, err = process.CleanupOrphanedAgents(ctx, executor, agent, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error killing orphaned processes: %v\n", err)
		}
	}
	logsCleared, err := logger.ClearLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error clearing logs: %v\n", err)
	}

	fmt.Println("Cleaned:")
	fmt.Printf("  - %d orphaned process(es) killed\n", killed)
	fmt.Printf("  - %d log file(s) removed\n", logsCleared)
	return nil
}
