package daemon

import "errors"

var (
	ErrBusy          = errors.New("another command is running")
	ErrCommandFailed = errors.New("command failed")
)
