package daemon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/zap"
)

const defaultMaxOutputSize = 64 * 1024

type Action string

const (
	ActionCheck Action = "check"
	ActionPush  Action = "push"
)

// Result is the outcome of one finished command. A non-zero exit code is not
// an error: zync reports problems through its exit status and output.
type Result struct {
	ID         string
	Action     Action
	Repository string
	Machine    string

	ExitCode  int
	Output    string
	Truncated bool

	StartedAt time.Time
	Duration  time.Duration
}

// Commands runs one-shot zync invocations against a single machine. At most
// one command runs at a time.
type Commands struct {
	config Config
	repos  *repositories.Service
	sink   *diaglog.Sink
	logger *zap.Logger

	slot sync.Mutex

	mu      sync.Mutex
	current *Result
}

func NewCommands(config Config, repos *repositories.Service, sink *diaglog.Sink, logger *zap.Logger) *Commands {
	return &Commands{
		config: config,
		repos:  repos,
		sink:   sink,
		logger: logger,
	}
}

// Check asks zync what a push would do, without changing anything.
func (c *Commands) Check(ctx context.Context, repo, machine string) (Result, error) {
	return c.run(ctx, ActionCheck, c.config.CheckArgs, repo, machine)
}

// Push synchronises the machine with the master.
func (c *Commands) Push(ctx context.Context, repo, machine string) (Result, error) {
	return c.run(ctx, ActionPush, c.config.PushArgs, repo, machine)
}

// Current returns the running command, if any. Output and timing fields are
// not filled in.
func (c *Commands) Current() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Result{}, false
	}
	return *c.current, true
}

func (c *Commands) run(ctx context.Context, action Action, args []string, repo, machine string) (Result, error) {
	if err := c.repos.CheckSyncAllowed(repo, machine); err != nil {
		return Result{}, err //nolint:wrapcheck //domain error
	}

	if !c.slot.TryLock() {
		return Result{}, ErrBusy
	}
	defer c.slot.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate run id: %w", err)
	}

	res := Result{
		ID:         id.String(),
		Action:     action,
		Repository: repo,
		Machine:    machine,
		StartedAt:  time.Now(),
	}
	c.setCurrent(&res)
	defer c.setCurrent(nil)

	if c.config.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CommandTimeout)
		defer cancel()
	}

	limit := c.config.MaxOutputSize
	if limit <= 0 {
		limit = defaultMaxOutputSize
	}
	output := &limitedBuffer{limit: limit}

	source := string(action) + ":" + res.ID
	stdout := newStream(source+":stdout", c.sink, c.repos, output)
	stderr := newStream(source+":stderr", c.sink, c.repos, output)

	argv := append(slices.Clone(args), repo, machine)
	cmd := exec.CommandContext(ctx, c.config.Binary, argv...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = c.config.StopTimeout

	c.logger.Info("running command",
		zap.String("id", res.ID),
		zap.String("action", string(action)),
		zap.String("repository", repo),
		zap.String("machine", machine))

	err = cmd.Run()
	_ = stdout.Close()
	_ = stderr.Close()

	res.Duration = time.Since(res.StartedAt)
	res.Output = output.String()
	res.Truncated = output.Truncated()

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		c.logger.Warn("command aborted", zap.String("id", res.ID), zap.Error(ctx.Err()))
		return res, fmt.Errorf("%w: %s %s %s: %w", ErrCommandFailed, action, repo, machine, ctx.Err())
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		c.logger.Error("command failed", zap.String("id", res.ID), zap.Error(err))
		return res, fmt.Errorf("%w: %s %s %s: %w", ErrCommandFailed, action, repo, machine, err)
	}

	c.logger.Info("command finished",
		zap.String("id", res.ID),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration))

	return res, nil
}

func (c *Commands) setCurrent(res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res == nil {
		c.current = nil
		return
	}

	cur := *res
	c.current = &cur
}
