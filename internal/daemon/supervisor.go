package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/zap"
)

const (
	sourceStdout = "daemon:stdout"
	sourceStderr = "daemon:stderr"
)

// State describes the supervised daemon process.
type State struct {
	Enabled   bool
	Running   bool
	PID       int
	StartedAt time.Time
	Restarts  int
	LastExit  string
}

// Supervisor keeps the zync daemon running and feeds its output into the
// status registry. The daemon is restarted after every exit until Stop.
type Supervisor struct {
	config Config
	repos  *repositories.Service
	sink   *diaglog.Sink
	logger *zap.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSupervisor(config Config, repos *repositories.Service, sink *diaglog.Sink, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		config: config,
		repos:  repos,
		sink:   sink,
		logger: logger,

		state: State{Enabled: config.Binary != ""},
	}
}

// Start launches the daemon in the background. A daemon that fails to start
// or exits is retried after RestartDelay.
func (s *Supervisor) Start() {
	if s.config.Binary == "" {
		s.logger.Info("daemon supervision disabled")
		return
	}

	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
}

// Stop interrupts the daemon and waits for the supervisor loop to finish.
// The process is killed when it ignores the interrupt for StopTimeout.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		s.logger.Info("daemon stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop daemon: %w", ctx.Err())
	}
}

// State returns a copy of the current process state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("daemon exited, restarting",
			zap.Error(err),
			zap.Duration("delay", s.config.RestartDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.RestartDelay):
		}

		s.mu.Lock()
		s.state.Restarts++
		s.mu.Unlock()
	}
}

func (s *Supervisor) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.config.Binary, s.config.DaemonArgs...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = s.config.StopTimeout

	stdout := newStream(sourceStdout, s.sink, s.repos)
	stderr := newStream(sourceStderr, s.sink, s.repos)
	defer func() {
		_ = stdout.Close()
		_ = stderr.Close()
	}()

	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		s.logger.Error("failed to start daemon", zap.String("binary", s.config.Binary), zap.Error(err))
		err = fmt.Errorf("failed to start daemon: %w", err)
		s.exited(err)
		return err
	}

	s.mu.Lock()
	s.state.Running = true
	s.state.PID = cmd.Process.Pid
	s.state.StartedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("daemon started",
		zap.Int("pid", cmd.Process.Pid),
		zap.Strings("args", cmd.Args))

	err := cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		err = errors.New("daemon exited")
	case errors.As(err, &exitErr):
		err = fmt.Errorf("daemon exited: %w", exitErr)
	default:
		err = fmt.Errorf("failed to wait for daemon: %w", err)
	}
	s.exited(err)

	return err
}

func (s *Supervisor) exited(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Running = false
	s.state.PID = 0
	s.state.LastExit = err.Error()
}
