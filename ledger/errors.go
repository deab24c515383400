package ledger

import "errors"

var (
	// ErrNotFound is returned both for an unknown bridgeId and for a
	// bridgeId owned by a different user. The two cases are
	// indistinguishable to the caller on purpose.
	ErrNotFound = errors.New("bridge record not found")

	// ErrInvalidTransition marks an illegal forward status jump. A
	// stale backward write is not an error; it is silently dropped.
	ErrInvalidTransition = errors.New("invalid bridge status transition")

	// ErrUpdateConflict is returned when the compare-and-swap loop
	// exhausts its retries against concurrent writers.
	ErrUpdateConflict = errors.New("bridge record update conflict")
)
