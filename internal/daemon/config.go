package daemon

import "time"

type Config struct {
	// Binary is the zync executable. An empty value disables the supervisor;
	// the last persisted state is still served.
	Binary     string
	DaemonArgs []string
	CheckArgs  []string
	PushArgs   []string

	RestartDelay   time.Duration
	StopTimeout    time.Duration
	CommandTimeout time.Duration

	// MaxOutputSize bounds the command output returned to the caller. The
	// whole output is still parsed and logged.
	MaxOutputSize int
}
