package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zync-tools/zyncmon/internal/status"
)

const (
	prefix = "repository:"

	prefixByPosition = prefix + "pos:"
)

type machineModel struct {
	Name   string            `json:"name"`
	Status status.SyncStatus `json:"status"`
}

// repositoryModel is the persisted last-known state of one repository. Keys
// embed the first-seen position so that a prefix scan returns repositories in
// registry order.
type repositoryModel struct {
	Position    int            `json:"position"`
	Name        string         `json:"name"`
	MasterName  string         `json:"master_name"`
	MasterDirOK bool           `json:"master_dir_ok"`
	Machines    []machineModel `json:"machines"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func newRepositoryModel(position int, repo status.Repository) *repositoryModel {
	machines := make([]machineModel, len(repo.Machines))
	for i, m := range repo.Machines {
		machines[i] = machineModel{Name: m.Name, Status: m.Status}
	}

	return &repositoryModel{
		Position:    position,
		Name:        repo.Name,
		MasterName:  repo.MasterName,
		MasterDirOK: repo.MasterDirOK,
		Machines:    machines,
		UpdatedAt:   time.Now(),
	}
}

func newRepository(model *repositoryModel) status.Repository {
	repo := status.Repository{
		Name:        model.Name,
		MasterName:  model.MasterName,
		MasterDirOK: model.MasterDirOK,
	}

	for _, m := range model.Machines {
		repo.Machines = append(repo.Machines, status.Machine{Name: m.Name, Status: m.Status})
	}

	return repo
}

func positionKey(position int) string {
	return fmt.Sprintf("%s%010d", prefixByPosition, position)
}

// StorageKey implements badgerfx.Entity.
func (m *repositoryModel) StorageKey() string {
	return positionKey(m.Position)
}

// MarshalStorage implements badgerfx.Entity.
func (m *repositoryModel) MarshalStorage() ([]byte, error) {
	return json.Marshal(m) //nolint:wrapcheck //wrapped by caller
}

// UnmarshalStorage implements badgerfx.Entity.
func (m *repositoryModel) UnmarshalStorage(data []byte) error {
	return json.Unmarshal(data, m) //nolint:wrapcheck //wrapped by caller
}
