package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a bridge record.
type Status string

const (
	StatusInitiated      Status = "initiated"
	StatusLockPending    Status = "lock_pending"
	StatusLockConfirmed  Status = "lock_confirmed"
	StatusReleasePending Status = "release_pending"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// rank orders the happy path. Error sits outside the ordering.
func (s Status) rank() int {
	switch s {
	case StatusInitiated:
		return 0
	case StatusLockPending:
		return 1
	case StatusLockConfirmed:
		return 2
	case StatusReleasePending:
		return 3
	case StatusCompleted:
		return 4
	}
	return -1
}

// ValidTransition reports whether moving from -> to is a legal forward
// step: one step along the happy path, or into Error from any
// non-terminal state.
func ValidTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusError {
		return true
	}
	return to.rank() == from.rank()+1
}

// BridgeRecord is the persisted lifecycle entity for one bridge
// operation. Records are never deleted; they are the audit trail.
type BridgeRecord struct {
	BridgeID    string
	OwnerUserID string

	FromChain   string
	ToChain     string
	Token       string
	FromAddress string
	ToAddress   string

	Status        Status
	LockAmount    decimal.Decimal
	ReleaseAmount decimal.Decimal

	// LockTxRef / ReleaseTxRef stay empty until the respective leg has
	// been submitted. A record in Error after a successful lock keeps
	// its LockTxRef: it is the only forensic trail for a partial
	// failure.
	LockTxRef    string
	ReleaseTxRef string

	ErrorDetail string

	CreatedAt   time.Time
	CompletedAt *time.Time

	// Version increments on every write; updates are compare-and-swap
	// on it so a stale writer can never clobber a newer transition.
	Version int64
}

func (r *BridgeRecord) clone() *BridgeRecord {
	c := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// CreateParams are the immutable inputs captured at acceptance.
type CreateParams struct {
	OwnerUserID   string
	FromChain     string
	ToChain       string
	Token         string
	FromAddress   string
	ToAddress     string
	LockAmount    decimal.Decimal
	ReleaseAmount decimal.Decimal
}

// JSONBridgeRecord is the wire form served by the HTTP layer.
type JSONBridgeRecord struct {
	BridgeID      string `json:"bridgeId"`
	Status        string `json:"status"`
	FromChain     string `json:"fromChain"`
	ToChain       string `json:"toChain"`
	Token         string `json:"token"`
	FromAddress   string `json:"fromAddress"`
	ToAddress     string `json:"toAddress"`
	LockAmount    string `json:"lockAmount"`
	ReleaseAmount string `json:"releaseAmount"`
	LockTxRef     string `json:"lockTxRef,omitempty"`
	ReleaseTxRef  string `json:"releaseTxRef,omitempty"`
	ErrorDetail   string `json:"errorDetail,omitempty"`
	CreatedAt     string `json:"createdAt"`
	CompletedAt   string `json:"completedAt,omitempty"`
}

func NewJSONBridgeRecord(r *BridgeRecord) *JSONBridgeRecord {
	j := &JSONBridgeRecord{
		BridgeID:      r.BridgeID,
		Status:        string(r.Status),
		FromChain:     r.FromChain,
		ToChain:       r.ToChain,
		Token:         r.Token,
		FromAddress:   r.FromAddress,
		ToAddress:     r.ToAddress,
		LockAmount:    r.LockAmount.String(),
		ReleaseAmount: r.ReleaseAmount.String(),
		LockTxRef:     r.LockTxRef,
		ReleaseTxRef:  r.ReleaseTxRef,
		ErrorDetail:   r.ErrorDetail,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.CompletedAt != nil {
		j.CompletedAt = r.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return j
}
