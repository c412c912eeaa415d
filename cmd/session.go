package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhubert/claudectl/internal/clipboard"
	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/model"
	"github.com/zhubert/claudectl/internal/paths"
	"github.com/zhubert/claudectl/internal/ui"
)

var (
	sessionProject   string
	sessionWorkspace string
	logsPlain        bool
	logsCopy         bool
	logsTail         int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Create, inspect and control agent sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new session and attach to it",
	Long: `Creates a session, starts the agent for it and streams the agent's output
until the agent exits. Lines typed on stdin are sent to the agent. Ctrl-C stops
the session.

The agent runs in the workspace worktree when --workspace is given, otherwise
in the project directory, otherwise in the current directory.`,
	Args: cobra.NoArgs,
	RunE: runSessionNew,
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions",
	Args:    cobra.NoArgs,
	RunE:    runSessionList,
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop <session>",
	Short: "Mark a session stopped",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStop,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <session>",
	Short: "Start a stopped or failed session and attach to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStart,
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session>",
	Short: "Delete a session and its log",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRm,
}

var sessionLogsCmd = &cobra.Command{
	Use:   "logs <session>",
	Short: "Show the output captured while attached to a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionLogs,
}

func init() {
	sessionNewCmd.Flags().StringVarP(&sessionProject, "project", "p", "", "Project ID, ID prefix or name")
	sessionNewCmd.Flags().StringVarP(&sessionWorkspace, "workspace", "w", "", "Run inside this workspace's worktree")
	sessionLogsCmd.Flags().BoolVar(&logsPlain, "plain", false, "Print without stream tags or colors")
	sessionLogsCmd.Flags().BoolVar(&logsCopy, "copy", false, "Copy the log to the clipboard instead of printing it")
	sessionLogsCmd.Flags().IntVarP(&logsTail, "tail", "n", 0, "Only the last n lines (0 for all)")
	sessionCmd.AddCommand(sessionNewCmd, sessionListCmd, sessionStopCmd, sessionStartCmd, sessionRmCmd, sessionLogsCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	var projectID *string
	if sessionProject != "" {
		p, err := mgr.FindProject(sessionProject)
		if err != nil {
			return err
		}
		projectID = &p.ID
	}
	var workDir string
	if sessionWorkspace != "" {
		ws, err := env.workspaces().Get(sessionWorkspace)
		if err != nil {
			return err
		}
		workDir = ws.WorktreePath
	}

	s, err := mgr.NewSessionIn(cmd.Context(), projectID, workDir)
	if err != nil {
		if s.ID != "" {
			return fmt.Errorf("session %s failed to start: %w", ui.ShortID(s.ID), err)
		}
		return err
	}
	fmt.Println(ui.Render(ui.SuccessStyle, "Started session "+s.ID))
	return attach(cmd.Context(), mgr, s.ID, paths.SessionLogPath(env.store.ConfigPath(), s.ID), os.Stdout, os.Stdin)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	sessions := mgr.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No sessions. Start one with: claudectl session new")
		return nil
	}

	names := make(map[string]string)
	for _, p := range mgr.Projects() {
		names[p.ID] = p.Name
	}
	fmt.Print(renderSessions(sessions, names, time.Now()))

	stats := mgr.Stats()
	fmt.Println(ui.Render(ui.MutedStyle, fmt.Sprintf("%d session(s), %d active, total runtime %s",
		len(sessions), stats.ActiveSessions, ui.FormatRuntime(stats.TotalRuntime))))
	return nil
}

func renderSessions(sessions []model.Session, projectNames map[string]string, now time.Time) string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	prefixes := ui.UniqueIDPrefixLengths(ids)

	tb := ui.NewTableBuilder([]string{"ID", "PROJECT", "STATUS", "RUNTIME", "CREATED", "DIR"}, len(sessions))
	for _, s := range sessions {
		project := "-"
		if s.ProjectID != nil {
			project = projectNames[*s.ProjectID]
			if project == "" {
				project = ui.ShortID(*s.ProjectID) + " (removed)"
			}
		}
		dir := s.WorkDir
		if dir == "" {
			dir = "-"
		}
		tb.AddRow(
			ui.HighlightID(ui.ShortID(s.ID), prefixes[strings.ToLower(s.ID)]),
			project,
			ui.StatusBadge(s.Status),
			ui.FormatRuntime(s.RuntimeSecs),
			ui.FormatTimeAgo(s.CreatedAt, now),
			dir,
		)
	}
	return tb.String()
}

func runSessionStop(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	s, err := mgr.FindSession(args[0])
	if err != nil {
		return err
	}
	if err := mgr.StopSession(s.ID); err != nil {
		return err
	}
	fmt.Println("Stopped session " + ui.ShortID(s.ID))
	return nil
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	defer mgr.Shutdown()

	s, err := mgr.FindSession(args[0])
	if err != nil {
		return err
	}
	if err := mgr.StartSession(cmd.Context(), s.ID); err != nil {
		return err
	}
	fmt.Println(ui.Render(ui.SuccessStyle, "Started session "+s.ID))
	return attach(cmd.Context(), mgr, s.ID, paths.SessionLogPath(env.store.ConfigPath(), s.ID), os.Stdout, os.Stdin)
}

func runSessionRm(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	s, err := mgr.FindSession(args[0])
	if err != nil {
		return err
	}
	if err := mgr.DeleteSession(s.ID); err != nil {
		return err
	}
	logPath := paths.SessionLogPath(env.store.ConfigPath(), s.ID)
	if err := os.Remove(logPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error removing session log: %v\n", err)
	}
	fmt.Println("Deleted session " + ui.ShortID(s.ID))
	return nil
}

func runSessionLogs(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	mgr, err := env.manager(true)
	if err != nil {
		return err
	}
	s, err := mgr.FindSession(args[0])
	if err != nil {
		return err
	}

	logPath := paths.SessionLogPath(env.store.ConfigPath(), s.ID)
	data, err := os.ReadFile(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return cerr.E(cerr.Op("cmd.SessionLogs"), cerr.KindNotFound,
			fmt.Sprintf("no output recorded for session %s", ui.ShortID(s.ID)))
	}
	if err != nil {
		return cerr.StorageIO(logPath, err)
	}

	out := string(data)
	if logsTail > 0 {
		out = ui.TailLines(out, logsTail)
	}
	if logsCopy {
		if err := clipboard.WriteText(ui.CleanOutput(out)); err != nil {
			return fmt.Errorf("error copying to clipboard: %w", err)
		}
		fmt.Println("Copied output of session " + ui.ShortID(s.ID))
		return nil
	}
	if logsPlain {
		fmt.Print(ui.StripStreamTags(ui.CleanOutput(out)))
		return nil
	}
	fmt.Print(ui.ColorizeOutput(out))
	return nil
}
