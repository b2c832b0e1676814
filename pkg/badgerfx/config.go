package badgerfx

import "github.com/dgraph-io/badger/v4"

type Config struct {
	// Path to the BadgerDB data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM; used by tests and ephemeral runs.
	InMemory bool

	// SyncWrites fsyncs every write transaction.
	SyncWrites bool
}

func (c Config) Build() badger.Options {
	if c.InMemory {
		return badger.DefaultOptions("").
			WithInMemory(true)
	}

	return badger.DefaultOptions(c.Dir).
		WithSyncWrites(c.SyncWrites)
}
