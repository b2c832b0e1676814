package daemon

import "time"

type CommandResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Repository string    `json:"repository"`
	Machine    string    `json:"machine"`
	StartedAt  time.Time `json:"started_at"`
}

type StateResponse struct {
	Enabled   bool       `json:"enabled"`
	Running   bool       `json:"running"`
	PID       int        `json:"pid,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Restarts  int        `json:"restarts"`
	LastExit  string     `json:"last_exit,omitempty"`

	Command *CommandResponse `json:"command,omitempty"`
}
