package repositories

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrNotAllowed = errors.New("operation not allowed")
)
