package stellarman

import (
	"context"

	"github.com/shopspring/decimal"
)

// Payment is one native-asset transfer to be signed.
type Payment struct {
	From              string
	To                string
	Amount            decimal.Decimal
	Memo              string
	SequenceNumber    int64
	BaseFee           int64
	NetworkPassphrase string
}

// PaymentSigner produces a signed transaction envelope for a payment.
// Key custody lives behind this boundary; the adapter never sees a
// secret seed.
type PaymentSigner interface {
	// Address is the funded account the signer spends from.
	Address() string

	// SignPayment returns the base64 transaction envelope XDR ready
	// for Horizon submission.
	SignPayment(ctx context.Context, p *Payment) (string, error)
}
