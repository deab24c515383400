package bridge

import "errors"

var (
	// ErrInvalidRoute rejects a request before anything is persisted.
	// Specific validation failures wrap it with detail.
	ErrInvalidRoute = errors.New("invalid bridge route")

	// ErrInvalidAmount marks an unparseable or non-positive amount on
	// the estimate path.
	ErrInvalidAmount = errors.New("invalid amount")
)
