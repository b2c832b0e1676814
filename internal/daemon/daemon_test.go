package daemon

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/internal/status"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/zap/zaptest"
)

func requireShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func newRepos(t *testing.T, records ...string) *repositories.Service {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := repositories.NewService(
		repositories.Config{},
		repositories.NewRepository(db),
		repositories.NewMetrics(prometheus.NewRegistry()),
		diaglog.Nop(),
		zaptest.NewLogger(t),
	)

	f := svc.NewFeed("test")
	for _, r := range records {
		_, _ = f.Write([]byte(r))
	}

	return svc
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func stop(t *testing.T, s *Supervisor) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
}

func TestSupervisor_FeedsRegistry(t *testing.T) {
	requireShell(t)

	repos := newRepos(t)
	s := NewSupervisor(Config{
		Binary:       "sh",
		DaemonArgs:   []string{"-c", "printf 'starting\\n{ alpha : h1(V) h2(!) }\\n'; printf '{ beta : h9(?) }' >&2; exec sleep 60"},
		RestartDelay: time.Hour,
		StopTimeout:  time.Second,
	}, repos, diaglog.Nop(), zaptest.NewLogger(t))

	s.Start()
	t.Cleanup(func() { stop(t, s) })

	waitFor(t, "records from both streams", func() bool {
		_, errA := repos.Get("alpha")
		_, errB := repos.Get("beta")
		return errA == nil && errB == nil
	})

	state := s.State()
	if !state.Enabled || !state.Running || state.PID == 0 {
		t.Errorf("State() = %+v, want running", state)
	}

	_, m, err := repos.Machine("alpha", "h2")
	if err != nil || m.Status != status.StatusNeeded {
		t.Errorf("alpha/h2 = %+v, %v", m, err)
	}
}

func TestSupervisor_StopInterruptsDaemon(t *testing.T) {
	requireShell(t)

	s := NewSupervisor(Config{
		Binary:       "sh",
		DaemonArgs:   []string{"-c", "exec sleep 60"},
		RestartDelay: time.Hour,
		StopTimeout:  time.Second,
	}, newRepos(t), diaglog.Nop(), zaptest.NewLogger(t))

	s.Start()
	waitFor(t, "daemon start", func() bool { return s.State().Running })

	stop(t, s)

	state := s.State()
	if state.Running || state.PID != 0 {
		t.Errorf("State() after Stop = %+v", state)
	}
	if state.Restarts != 0 {
		t.Errorf("Restarts = %d, want 0", state.Restarts)
	}
}

func TestSupervisor_Restarts(t *testing.T) {
	requireShell(t)

	repos := newRepos(t)
	s := NewSupervisor(Config{
		Binary:       "sh",
		DaemonArgs:   []string{"-c", "printf '{ r : m(V) }'; exit 2"},
		RestartDelay: 10 * time.Millisecond,
		StopTimeout:  time.Second,
	}, repos, diaglog.Nop(), zaptest.NewLogger(t))

	s.Start()
	t.Cleanup(func() { stop(t, s) })

	waitFor(t, "two restarts", func() bool { return s.State().Restarts >= 2 })

	if got := s.State().LastExit; !strings.Contains(got, "exit status 2") {
		t.Errorf("LastExit = %q", got)
	}
	if got := len(repos.List(nil)); got != 1 {
		t.Errorf("repeated output created %d repositories, want 1", got)
	}
}

func TestSupervisor_MissingBinaryRetried(t *testing.T) {
	s := NewSupervisor(Config{
		Binary:       "/nonexistent/zync",
		RestartDelay: 10 * time.Millisecond,
	}, newRepos(t), diaglog.Nop(), zaptest.NewLogger(t))

	s.Start()
	t.Cleanup(func() { stop(t, s) })

	waitFor(t, "a retry", func() bool { return s.State().Restarts >= 1 })

	if got := s.State().LastExit; !strings.Contains(got, "failed to start daemon") {
		t.Errorf("LastExit = %q", got)
	}
}

func TestSupervisor_Disabled(t *testing.T) {
	s := NewSupervisor(Config{}, newRepos(t), diaglog.Nop(), zaptest.NewLogger(t))

	s.Start()
	if s.State().Enabled {
		t.Error("supervisor without binary must be disabled")
	}
	stop(t, s)
}

const echoScript = `printf '{ %s : m(V) %s(V) }\n' "$0" "$1"; echo done >&2; exit 3`

func TestCommands_Check(t *testing.T) {
	requireShell(t)

	repos := newRepos(t, "{ alpha : m(V) x(!) y(!) }")
	c := NewCommands(Config{
		Binary:    "sh",
		CheckArgs: []string{"-c", echoScript},
	}, repos, diaglog.Nop(), zaptest.NewLogger(t))

	res, err := c.Check(context.Background(), "alpha", "x")
	if err != nil {
		t.Fatal(err)
	}

	if res.ID == "" || res.Action != ActionCheck || res.Repository != "alpha" || res.Machine != "x" {
		t.Errorf("Result = %+v", res)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Output, "{ alpha : m(V) x(V) }") || !strings.Contains(res.Output, "done") {
		t.Errorf("Output = %q", res.Output)
	}

	// command output is parsed like daemon output
	_, m, err := repos.Machine("alpha", "x")
	if err != nil || m.Status != status.StatusOK {
		t.Errorf("alpha/x = %+v, %v", m, err)
	}

	if _, err := c.Check(context.Background(), "alpha", "x"); !errors.Is(err, repositories.ErrNotAllowed) {
		t.Errorf("second Check error = %v, want ErrNotAllowed", err)
	}
	if _, ok := c.Current(); ok {
		t.Error("Current() reports a command after it finished")
	}
}

func TestCommands_Eligibility(t *testing.T) {
	repos := newRepos(t, "{ alpha : m(V) fine(V) }{ beta : m(X) behind(!) }")
	c := NewCommands(Config{Binary: "/nonexistent/zync"}, repos, diaglog.Nop(), zaptest.NewLogger(t))

	tests := []struct {
		repo, machine string
		want          error
	}{
		{"alpha", "nope", repositories.ErrNotFound},
		{"gamma", "x", repositories.ErrNotFound},
		{"alpha", "fine", repositories.ErrNotAllowed},
		{"beta", "behind", repositories.ErrNotAllowed},
	}

	for _, tt := range tests {
		if _, err := c.Push(context.Background(), tt.repo, tt.machine); !errors.Is(err, tt.want) {
			t.Errorf("Push(%s, %s) error = %v, want %v", tt.repo, tt.machine, err, tt.want)
		}
	}
}

func TestCommands_SingleSlot(t *testing.T) {
	requireShell(t)

	repos := newRepos(t, "{ alpha : m(V) x(!) y(!) }")
	c := NewCommands(Config{
		Binary:    "sh",
		PushArgs:  []string{"-c", "exec sleep 30"},
		CheckArgs: []string{"-c", "exit 0"},
	}, repos, diaglog.Nop(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.Push(ctx, "alpha", "x")
		done <- err
	}()

	waitFor(t, "push to start", func() bool {
		cur, ok := c.Current()
		return ok && cur.Action == ActionPush
	})

	if _, err := c.Check(context.Background(), "alpha", "y"); !errors.Is(err, ErrBusy) {
		t.Errorf("Check during push error = %v, want ErrBusy", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, ErrCommandFailed) || !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Push error = %v", err)
	}

	if _, err := c.Check(context.Background(), "alpha", "y"); err != nil {
		t.Errorf("Check after push = %v", err)
	}
}

func TestCommands_Timeout(t *testing.T) {
	requireShell(t)

	c := NewCommands(Config{
		Binary:         "sh",
		PushArgs:       []string{"-c", "exec sleep 30"},
		CommandTimeout: 100 * time.Millisecond,
	}, newRepos(t, "{ alpha : m(V) x(!) }"), diaglog.Nop(), zaptest.NewLogger(t))

	_, err := c.Push(context.Background(), "alpha", "x")
	if !errors.Is(err, ErrCommandFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Push error = %v, want ErrCommandFailed with deadline", err)
	}
}

func TestCommands_OutputLimit(t *testing.T) {
	requireShell(t)

	c := NewCommands(Config{
		Binary:        "sh",
		CheckArgs:     []string{"-c", "printf '0123456789abcdef'"},
		MaxOutputSize: 10,
	}, newRepos(t, "{ alpha : m(V) x(!) }"), diaglog.Nop(), zaptest.NewLogger(t))

	res, err := c.Check(context.Background(), "alpha", "x")
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != "0123456789" || !res.Truncated {
		t.Errorf("Output = %q, Truncated = %t", res.Output, res.Truncated)
	}
}

func TestCommands_MissingBinary(t *testing.T) {
	c := NewCommands(Config{Binary: "/nonexistent/zync"},
		newRepos(t, "{ alpha : m(V) x(!) }"), diaglog.Nop(), zaptest.NewLogger(t))

	if _, err := c.Push(context.Background(), "alpha", "x"); !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Push error = %v, want ErrCommandFailed", err)
	}
}
