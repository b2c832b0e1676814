package badgerfx

import (
	"slices"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap/zaptest"
)

type note struct {
	key  string
	text string
}

func (n *note) StorageKey() string { return n.key }
func (n *note) MarshalStorage() ([]byte, error) { return []byte(n.key + "=" + n.text), nil }
func (n *note) UnmarshalStorage(data []byte) error {
	for i, b := range data {
		if b == '=' {
			n.key, n.text = string(data[:i]), string(data[i+1:])
			return nil
		}
	}
	n.text = string(data)
	return nil
}

func TestRepository_ListByPrefix(t *testing.T) {
	db, err := New(Config{InMemory: true}, newLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(func() *note { return new(note) })

	err = db.Update(func(txn *badger.Txn) error {
		for _, n := range []*note{
			{"a:2", "second"},
			{"b:1", "other"},
			{"a:1", "first"},
		} {
			if err := repo.Write(txn, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	err = db.View(func(txn *badger.Txn) error {
		notes, err := repo.List(txn, "a:", badger.DefaultIteratorOptions)
		for _, n := range notes {
			got = append(got, n.text)
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"first", "second"}; !slices.Equal(got, want) {
		t.Errorf("List(a:) = %v, want %v", got, want)
	}
}
