// Implement this interface to plug a new chain family into the bridge.

package chainadapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TxRef is a chain-specific transaction reference (tx hash on an
// account-balance chain, transaction id on a ledger-account chain).
type TxRef string

// TxStatus is the observed state of a submitted transfer.
// Amount and Recipient are reported when the chain exposes them
// (used by the integrity verifier); zero values mean "not reported".
type TxStatus struct {
	Confirmed  bool
	Succeeded  bool
	ObservedAt time.Time

	Amount    decimal.Decimal
	Recipient string
}

// ChainAdapter wraps one chain's native transfer/status API.
//
// Submission order for the custodial account is serialized inside the
// adapter: a second transfer must not reuse the chain-level
// sequence/nonce before the first submission is acknowledged.
type ChainAdapter interface {
	// SubmitNativeTransfer submits a native-asset payment and returns
	// its reference without waiting for confirmation.
	SubmitNativeTransfer(ctx context.Context, from, to string, amount decimal.Decimal, memo string) (TxRef, error)

	// GetTransactionStatus fetches the current status of a submitted
	// transfer. Returns ErrTxNotFound while the network has not
	// indexed the transaction yet.
	GetTransactionStatus(ctx context.Context, ref TxRef) (TxStatus, error)

	// EstimateConfirmationLatency reports how long a transfer is
	// expected to take until it counts as confirmed.
	EstimateConfirmationLatency(ctx context.Context) (time.Duration, error)
}
