package repositories

import (
	"time"

	"github.com/zync-tools/zyncmon/internal/status"
)

// ListQuery filters the repository list by aggregate status.
type ListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=ok needed no_dir failed"`
}

type MasterResponse struct {
	Name  string `json:"name"`
	DirOK bool   `json:"dir_ok"`
}

type MachineResponse struct {
	Name        string            `json:"name"`
	Status      status.SyncStatus `json:"status"`
	SyncAllowed bool              `json:"sync_allowed"`
}

// RepositoryResponse carries the aggregate status computed at request time.
type RepositoryResponse struct {
	Name     string            `json:"name"`
	Status   status.SyncStatus `json:"status"`
	Master   MasterResponse    `json:"master"`
	Machines []MachineResponse `json:"machines"`
}

type RunResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Repository string    `json:"repository"`
	Machine    string    `json:"machine"`
	ExitCode   int       `json:"exit_code"`
	Output     string    `json:"output"`
	Truncated  bool      `json:"truncated"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}
