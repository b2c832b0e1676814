package badgerfx

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Entity is a value that knows its own key and wire format.
type Entity interface {
	StorageKey() string
	MarshalStorage() ([]byte, error)
	UnmarshalStorage(data []byte) error
}

type EntityFactory[T Entity] func() T

// Repository reads and writes entities of one type inside caller-provided
// transactions.
type Repository[T Entity] struct {
	factory EntityFactory[T]
}

func NewRepository[T Entity](factory EntityFactory[T]) *Repository[T] {
	return &Repository[T]{
		factory: factory,
	}
}

// List returns every entity stored under prefix in key order.
func (r *Repository[T]) List(txn *badger.Txn, prefix string, options badger.IteratorOptions) ([]T, error) {
	p := []byte(prefix)
	options.Prefix = p

	it := txn.NewIterator(options)
	defer it.Close()

	var entities []T
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()

		entity := r.factory()
		if err := item.Value(entity.UnmarshalStorage); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entity %q: %w", item.Key(), err)
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

func (r *Repository[T]) Write(txn *badger.Txn, entity T) error {
	data, err := entity.MarshalStorage()
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	if setErr := txn.Set([]byte(entity.StorageKey()), data); setErr != nil {
		return fmt.Errorf("failed to write entity: %w", setErr)
	}

	return nil
}
