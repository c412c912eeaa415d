// Package process supervises the agent processes behind sessions and finds
// agent processes left behind by earlier runs.
package process

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cerr "github.com/zhubert/claudectl/internal/errors"
	"github.com/zhubert/claudectl/internal/logger"
)

const (
	DefaultCommand      = "claude"
	DefaultStopTimeout  = 2 * time.Second
	DefaultProbeTimeout = 10 * time.Second

	// EnvSessionID is set in every agent's environment.
	EnvSessionID = "CLAUDECTL_SESSION_ID"

	maxLineSize = 1024 * 1024

	// outputDrainTimeout bounds how long output is still read after the
	// agent exits, for descendants that inherited its streams.
	outputDrainTimeout = 500 * time.Millisecond
)

// Config controls how agents are launched.
type Config struct {
	Command      string        // executable name or path, resolved on PATH
	Args         []string      // arguments for the interactive invocation
	StopTimeout  time.Duration // grace period after SIGTERM before SIGKILL
	ProbeTimeout time.Duration // limit for the --version probe
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = DefaultCommand
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	return c
}

// handle is the live binding between a session and its agent process.
type handle struct {
	sessionID string
	workDir   string
	startedAt time.Time
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	out       *outputBuffer

	// exit is closed as soon as cmd.Wait() returns. done is closed after
	// that, once the output readers have finished.
	exit    chan struct{}
	done    chan struct{}
	exitErr error
}

func (h *handle) exited() bool {
	select {
	case <-h.exit:
		return true
	default:
		return false
	}
}

// outputBuffer accumulates tagged lines from both streams.
type outputBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (o *outputBuffer) appendLine(tag, line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.b.WriteString(tag)
	o.b.WriteByte(' ')
	o.b.WriteString(line)
	o.b.WriteByte('\n')
}

func (o *outputBuffer) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.b.String()
}

// Supervisor owns the registry of running agent processes. At most one
// process exists per session ID.
type Supervisor struct {
	cfg Config
	log *slog.Logger

	mu       sync.RWMutex
	registry map[string]*handle
}

// NewSupervisor returns an empty supervisor.
func NewSupervisor(cfg Config) *Supervisor {
	return &Supervisor{
		cfg:      cfg.withDefaults(),
		log:      logger.WithComponent("process"),
		registry: make(map[string]*handle),
	}
}

// Command returns the agent executable the supervisor launches.
func (s *Supervisor) Command() string {
	return s.cfg.Command
}

// Probe runs `<agent> --version`. Only a failure to launch counts as the
// agent being unavailable; a non-zero exit still proves it is installed.
func (s *Supervisor) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	err := exec.CommandContext(ctx, s.cfg.Command, "--version").Run()
	var exitErr *exec.ExitError
	if err == nil || (errors.As(err, &exitErr) && ctx.Err() == nil) {
		return nil
	}
	return cerr.ExecutableNotFound(s.cfg.Command, err)
}

// Spawn starts the agent for sessionID, rooted at workDir when non-empty.
// The process is started outside the registry lock; if another Spawn for
// the same session registers first, the new process is killed.
func (s *Supervisor) Spawn(ctx context.Context, sessionID, workDir string) error {
	if s.IsRunning(sessionID) {
		return cerr.SessionAlreadyRunning(sessionID)
	}
	if err := s.Probe(ctx); err != nil {
		return err
	}

	h, err := s.start(sessionID, workDir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.registry[sessionID]; ok {
		s.mu.Unlock()
		s.log.Debug("lost spawn race, discarding agent", "sessionID", sessionID)
		h.stdin.Close()
		h.cmd.Process.Kill()
		return cerr.SessionAlreadyRunning(sessionID)
	}
	s.registry[sessionID] = h
	s.mu.Unlock()
	return nil
}

func (s *Supervisor) start(sessionID, workDir string) (*handle, error) {
	log := s.log.With("sessionID", sessionID)

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), EnvSessionID+"="+sessionID)
	cmd.SysProcAttr = sysProcAttr()

	// The read ends are ours. The write ends go to the child and are closed
	// here after Start, so exit is observed through Wait, not pipe EOF.
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, cerr.SpawnFailed(sessionID, err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, cerr.SpawnFailed(sessionID, err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW
	stdin, err := cmd.StdinPipe()
	if err != nil {
		closeAll(outR, outW, errR, errW)
		return nil, cerr.SpawnFailed(sessionID, err)
	}

	h := &handle{
		sessionID: sessionID,
		workDir:   workDir,
		cmd:       cmd,
		stdin:     stdin,
		out:       &outputBuffer{},
		exit:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	started := make(chan error, 1)
	go func() {
		// Pdeathsig fires when the forking thread exits, so the thread that
		// starts the agent stays locked until the agent has been reaped.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := cmd.Start(); err != nil {
			started <- err
			return
		}
		started <- nil
		h.exitErr = cmd.Wait()
		close(h.exit)
	}()

	err = <-started
	outW.Close()
	errW.Close()
	if err != nil {
		stdin.Close()
		outR.Close()
		errR.Close()
		log.Error("failed to start agent", "error", err)
		return nil, cerr.SpawnFailed(sessionID, err)
	}
	h.startedAt = time.Now()

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		readLines(outR, "[OUT]", h.out, log)
	}()
	go func() {
		defer readers.Done()
		readLines(errR, "[ERR]", h.out, log)
	}()
	go drainAfterExit(h, &readers, log, outR, errR)

	log.Info("agent started", "pid", cmd.Process.Pid, "workDir", workDir)
	return h, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		f.Close()
	}
}

// readLines drains r into buf until EOF or until r is closed.
func readLines(r io.Reader, tag string, buf *outputBuffer, log *slog.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		buf.appendLine(tag, scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Debug("output reader stopped", "stream", tag, "error", err)
	}
}

// drainAfterExit closes done once the agent has exited and its output has
// been read. Descendants that still hold the streams open get
// outputDrainTimeout before the read ends are closed under them.
func drainAfterExit(h *handle, readers *sync.WaitGroup, log *slog.Logger, streams ...*os.File) {
	<-h.exit
	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(outputDrainTimeout):
		log.Debug("agent streams still open after exit, closing")
		closeAll(streams...)
		<-drained
	}
	closeAll(streams...)
	close(h.done)
	log.Debug("agent exited", "error", h.exitErr, "ran", time.Since(h.startedAt).Round(time.Millisecond))
}

// Stop removes the session's handle and terminates its process. The
// handle is gone from the registry before any signal is sent.
func (s *Supervisor) Stop(sessionID string) error {
	s.mu.Lock()
	h, ok := s.registry[sessionID]
	if ok {
		delete(s.registry, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return cerr.SessionNotFound(sessionID)
	}
	s.terminate(h)
	return nil
}

// terminate asks the process to exit and escalates to a kill if the
// request cannot be delivered or is ignored for StopTimeout.
func (s *Supervisor) terminate(h *handle) {
	log := s.log.With("sessionID", h.sessionID)
	h.stdin.Close()

	if h.exited() {
		return
	}
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Debug("graceful stop failed, killing", "error", err)
		h.cmd.Process.Kill()
		return
	}

	go func() {
		select {
		case <-h.exit:
			log.Debug("agent stopped gracefully")
		case <-time.After(s.cfg.StopTimeout):
			log.Warn("agent ignored SIGTERM, killing", "timeout", s.cfg.StopTimeout)
			h.cmd.Process.Kill()
		}
	}()
}

// IsRunning reports whether a handle is registered. It does not probe the OS.
func (s *Supervisor) IsRunning(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[sessionID]
	return ok
}

// ReconcileStatuses polls every handle without blocking. Handles whose
// process has exited are removed and reported false; the rest are true.
// Persisting any status change is the caller's job.
func (s *Supervisor) ReconcileStatuses() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[string]bool, len(s.registry))
	for id, h := range s.registry {
		if h.exited() {
			delete(s.registry, id)
			statuses[id] = false
			s.log.Info("agent exited without stop", "sessionID", id, "error", h.exitErr)
			continue
		}
		statuses[id] = true
	}
	return statuses
}

// Output returns a copy of the captured output for a registered session.
func (s *Supervisor) Output(sessionID string) (string, bool) {
	s.mu.RLock()
	h, ok := s.registry[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	return h.out.String(), true
}

// Done returns a channel closed once the session's agent has exited and
// its output has been captured. The handle stays registered until the
// next ReconcileStatuses or Stop.
func (s *Supervisor) Done(sessionID string) (<-chan struct{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.registry[sessionID]
	if !ok {
		return nil, false
	}
	return h.done, true
}

// WriteInput sends data to the agent's standard input.
func (s *Supervisor) WriteInput(sessionID string, data []byte) error {
	s.mu.RLock()
	h, ok := s.registry[sessionID]
	s.mu.RUnlock()
	if !ok {
		return cerr.SessionNotFound(sessionID)
	}
	if _, err := h.stdin.Write(data); err != nil {
		return cerr.E(cerr.Op("process.WriteInput"), cerr.KindIO, sessionID, err)
	}
	return nil
}

// PID returns the OS process ID for a registered session.
func (s *Supervisor) PID(sessionID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.registry[sessionID]
	if !ok {
		return 0, false
	}
	return h.cmd.Process.Pid, true
}

// Restart stops the session if it is running and spawns it again.
func (s *Supervisor) Restart(ctx context.Context, sessionID, workDir string) error {
	if err := s.Stop(sessionID); err != nil && !cerr.Is(err, cerr.KindNotFound) {
		return err
	}
	return s.Spawn(ctx, sessionID, workDir)
}

// CleanupAll kills every registered process and empties the registry. It
// waits up to StopTimeout for each process to be reaped.
func (s *Supervisor) CleanupAll() error {
	s.mu.Lock()
	handles := make([]*handle, 0, len(s.registry))
	for id, h := range s.registry {
		handles = append(handles, h)
		delete(s.registry, id)
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, h := range handles {
		g.Go(func() error {
			h.stdin.Close()
			if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return cerr.E(cerr.Op("process.CleanupAll"), cerr.KindIO, h.sessionID, err)
			}
			select {
			case <-h.exit:
			case <-time.After(s.cfg.StopTimeout):
				s.log.Warn("agent not reaped after kill", "sessionID", h.sessionID)
			}
			return nil
		})
	}
	if len(handles) > 0 {
		s.log.Info("cleaned up agents", "count", len(handles))
	}
	return g.Wait()
}

// ActiveCount returns the number of registered handles.
func (s *Supervisor) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

// SessionIDs returns the registered session IDs, sorted.
func (s *Supervisor) SessionIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
