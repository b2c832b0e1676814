package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/zync-tools/zyncmon/internal/status"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/zap"
)

// Service owns the status registry. Feeds apply records under the write
// lock; readers get deep copies under the read lock and never observe a
// half-applied chunk.
type Service struct {
	mu       sync.RWMutex
	registry *status.Registry

	config       Config
	repositories *Repository
	metrics      *Metrics

	trace  *zap.Logger
	logger *zap.Logger
}

func NewService(
	config Config,
	repositories *Repository,
	metrics *Metrics,
	sink *diaglog.Sink,
	logger *zap.Logger,
) *Service {
	return &Service{
		registry: status.NewRegistry(),

		config:       config,
		repositories: repositories,
		metrics:      metrics,

		trace:  sink.Logger("parser"),
		logger: logger,
	}
}

// Restore seeds the registry with the last persisted state.
func (s *Service) Restore(ctx context.Context) error {
	repos, err := s.repositories.List(ctx)
	if err != nil {
		s.logger.Error("failed to load persisted repositories", zap.Error(err))
		return fmt.Errorf("failed to restore registry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Restore(repos...)
	for _, repo := range s.registry.Snapshot() {
		s.metrics.observe(repo)
	}

	s.logger.Info("registry restored", zap.Int("repositories", len(repos)))
	return nil
}

// NewFeed returns a writer for one output stream. source names the stream in
// logs, e.g. "daemon:stdout".
func (s *Service) NewFeed(source string) *Feed {
	return &Feed{
		source:    source,
		extractor: status.NewExtractor(s.config.MaxRecordSize),

		svc: s,
	}
}

func (s *Service) consume(f *Feed, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.extractor.Write(chunk)

	changed := make(map[int]status.Repository)
	for _, span := range f.extractor.All() {
		rec, err := status.Parse(span)
		if err != nil {
			s.reject(f.source, span, err)
			continue
		}

		res := s.registry.Apply(rec)
		s.metrics.record(resultApplied)

		if res.Created {
			s.logger.Info("repository discovered",
				zap.String("repository", rec.Repository),
				zap.String("master", rec.Master.Name))
		}
		if len(res.NewMachines) > 0 {
			s.logger.Info("machines discovered",
				zap.String("repository", rec.Repository),
				zap.Strings("machines", res.NewMachines))
		}
		if !res.Changed {
			continue
		}

		repo, _ := s.registry.Get(rec.Repository)
		pos, _ := s.registry.Index(rec.Repository)
		changed[pos] = repo
		s.metrics.observe(repo)

		for _, m := range repo.Machines {
			s.trace.Debug("machine status",
				zap.String("repository", repo.Name),
				zap.String("machine", m.Name),
				zap.Stringer("status", m.Status))
		}
	}

	s.metrics.dropped(f.extractor.Dropped())

	if err := s.repositories.Save(context.Background(), changed); err != nil {
		s.logger.Error("failed to persist registry", zap.Error(err))
	}
}

func (s *Service) reject(source, span string, err error) {
	result := resultMalformed
	if errors.Is(err, status.ErrUnknownFlag) {
		result = resultUnknownFlag
	}
	s.metrics.record(result)

	s.trace.Warn("record skipped",
		zap.String("source", source),
		zap.String("record", span),
		zap.Error(err))
}

// List returns every known repository in first-seen order, optionally only
// those whose aggregate status equals filter.
func (s *Service) List(filter *status.SyncStatus) []status.Repository {
	s.mu.RLock()
	repos := s.registry.Snapshot()
	s.mu.RUnlock()

	if filter == nil {
		return repos
	}

	return lo.Filter(repos, func(repo status.Repository, _ int) bool {
		return status.Aggregate(repo) == *filter
	})
}

// Get returns one repository by name.
func (s *Service) Get(name string) (status.Repository, error) {
	s.mu.RLock()
	repo, ok := s.registry.Get(name)
	s.mu.RUnlock()

	if !ok {
		return status.Repository{}, fmt.Errorf("%w: repository %q", ErrNotFound, name)
	}

	return repo, nil
}

// Machine returns one machine together with its repository.
func (s *Service) Machine(repoName, machineName string) (status.Repository, status.Machine, error) {
	repo, err := s.Get(repoName)
	if err != nil {
		return status.Repository{}, status.Machine{}, err
	}

	m, ok := repo.Machine(machineName)
	if !ok {
		return status.Repository{}, status.Machine{}, fmt.Errorf(
			"%w: machine %q in repository %q", ErrNotFound, machineName, repoName,
		)
	}

	return repo, m, nil
}

// CheckSyncAllowed returns nil when a check or push against the machine is
// meaningful in the current state.
func (s *Service) CheckSyncAllowed(repoName, machineName string) error {
	repo, m, err := s.Machine(repoName, machineName)
	if err != nil {
		return err
	}

	if !repo.SyncAllowed(m) {
		return fmt.Errorf(
			"%w: machine %q of %q is %s with master directory ok=%t",
			ErrNotAllowed, machineName, repoName, m.Status, repo.MasterDirOK,
		)
	}

	return nil
}
