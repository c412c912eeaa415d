package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
	"github.com/zhubert/claudectl/internal/manager"
	"github.com/zhubert/claudectl/internal/ui"
)

const attachPollInterval = 100 * time.Millisecond

// attach streams a running session's output to stdout and a log file and
// forwards stdin lines to the agent. It returns when the agent exits or,
// after stopping the session, when the user interrupts.
func attach(ctx context.Context, mgr *manager.Manager, id, logPath string, stdout io.Writer, stdin io.Reader) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.WithSession(id)
	sup := mgr.Supervisor()
	done, ok := sup.Done(id)
	if !ok {
		return cerr.SessionNotFound(id)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return cerr.StorageIO(filepath.Dir(logPath), err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return cerr.StorageIO(logPath, err)
	}
	defer logFile.Close()

	if stdin != nil {
		go func() {
			scanner := bufio.NewScanner(stdin)
			for scanner.Scan() {
				if err := sup.WriteInput(id, append(scanner.Bytes(), '\n')); err != nil {
					log.Debug("input forwarding stopped", "error", err)
					return
				}
			}
		}()
	}

	var printed int
	flush := func() {
		out, ok := mgr.Output(id)
		if !ok || len(out) <= printed {
			return
		}
		chunk := out[printed:]
		printed = len(out)
		if _, err := logFile.WriteString(chunk); err != nil {
			log.Warn("failed to write session log", "path", logPath, "error", err)
		}
		fmt.Fprint(stdout, ui.ColorizeOutput(chunk))
	}

	ticker := time.NewTicker(attachPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			flush()

		case <-done:
			flush()
			if _, err := mgr.Reconcile(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, ui.Render(ui.WarningStyle, "Agent exited; session "+ui.ShortID(id)+" marked Error"))
			return nil

		case <-ctx.Done():
			flush()
			if err := mgr.StopSession(id); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Stopped session "+ui.ShortID(id))
			return nil
		}
	}
}
