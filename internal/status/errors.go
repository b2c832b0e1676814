package status

import "errors"

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnknownFlag     = errors.New("unknown status flag")
	ErrUnknownStatus   = errors.New("unknown status")
)
