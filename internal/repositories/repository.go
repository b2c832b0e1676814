package repositories

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/zync-tools/zyncmon/internal/status"
	"github.com/zync-tools/zyncmon/pkg/badgerfx"
)

// Repository persists the last known registry state in BadgerDB.
type Repository struct {
	db *badger.DB

	entities *badgerfx.Repository[*repositoryModel]
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,

		entities: badgerfx.NewRepository(func() *repositoryModel { return new(repositoryModel) }),
	}
}

// Save stores the given repositories at their registry positions.
func (r *Repository) Save(_ context.Context, positions map[int]status.Repository) error {
	if len(positions) == 0 {
		return nil
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		for pos, repo := range positions {
			if err := r.entities.Write(txn, newRepositoryModel(pos, repo)); err != nil {
				return fmt.Errorf("failed to store repository %q: %w", repo.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save repositories: %w", err)
	}

	return nil
}

// List loads every stored repository in registry order.
func (r *Repository) List(_ context.Context) ([]status.Repository, error) {
	var models []*repositoryModel

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10

		var err error
		models, err = r.entities.List(txn, prefixByPosition, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	repos := make([]status.Repository, 0, len(models))
	for _, m := range models {
		repos = append(repos, newRepository(m))
	}

	return repos, nil
}
