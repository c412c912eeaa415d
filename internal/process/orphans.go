package process

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pexec "github.com/zhubert/claudectl/internal/exec"
	"github.com/zhubert/claudectl/internal/logger"
)

// AgentProcess is an agent process found in the OS process table.
type AgentProcess struct {
	PID     int
	PPID    int
	Command string
}

// ListAgentProcesses returns processes whose executable base name matches
// agent, using `ps -eo pid=,ppid=,args=`.
func ListAgentProcesses(ctx context.Context, executor pexec.CommandExecutor, agent string) ([]AgentProcess, error) {
	out, err := executor.Output(ctx, "", "ps", "-eo", "pid=,ppid=,args=")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return parsePS(string(out), agent), nil
}

func parsePS(out, agent string) []AgentProcess {
	name := filepath.Base(agent)
	var procs []AgentProcess
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		if filepath.Base(fields[2]) != name {
			continue
		}
		procs = append(procs, AgentProcess{
			PID:     pid,
			PPID:    ppid,
			Command: strings.Join(fields[2:], " "),
		})
	}
	return procs
}

// FindOrphanedAgents returns agent processes that were reparented to init
// and are not in known (PIDs this claudectl still supervises).
func FindOrphanedAgents(ctx context.Context, executor pexec.CommandExecutor, agent string, known map[int]bool) ([]AgentProcess, error) {
	all, err := ListAgentProcesses(ctx, executor, agent)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("process")
	var orphans []AgentProcess
	for _, p := range all {
		if p.PPID != 1 || known[p.PID] {
			continue
		}
		log.Info("found orphaned agent process", "pid", p.PID, "command", p.Command)
		orphans = append(orphans, p)
	}
	return orphans, nil
}

// KillProcess force-kills pid.
func KillProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// CleanupOrphanedAgents kills every orphan and returns how many were killed.
func CleanupOrphanedAgents(ctx context.Context, executor pexec.CommandExecutor, agent string, known map[int]bool) (int, error) {
	orphans, err := FindOrphanedAgents(ctx, executor, agent, known)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("process")
	killed := 0
	for _, p := range orphans {
		if err := KillProcess(p.PID); err != nil {
			log.Warn("failed to kill orphaned agent", "pid", p.PID, "error", err)
			continue
		}
		killed++
	}
	return killed, nil
}
