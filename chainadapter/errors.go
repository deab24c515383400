package chainadapter

import "errors"

var (
	// ErrNetworkUnavailable marks a transient failure. Callers may
	// retry the same call with backoff.
	ErrNetworkUnavailable = errors.New("chain network unavailable")

	// ErrTransactionRejected marks a permanent failure of the
	// submitted transfer (insufficient balance, bad nonce/sequence).
	// Terminal for the attempt, never retried automatically.
	ErrTransactionRejected = errors.New("transaction rejected by chain")

	// ErrTxNotFound is returned when a status query races the
	// network's indexing. Treated as "not yet confirmed".
	ErrTxNotFound = errors.New("transaction not found on chain")
)
