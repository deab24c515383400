package bridge

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/stellargate-io/bridge-go/chainadapter"
	"github.com/stellargate-io/bridge-go/chains"
	"github.com/stellargate-io/bridge-go/ledger"
)

// Verifier audits completed (or stuck) bridge records against the
// chains and the ledger. Strictly read-only: it never mutates a
// record, whatever it finds.
type Verifier struct {
	reg     *chains.Registry
	records *ledger.Ledger

	// tolerance is the relative slack allowed between the stored and
	// the recomputed release amount, to absorb rate updates between
	// quote and execution.
	tolerance decimal.Decimal
}

func NewVerifier(reg *chains.Registry, records *ledger.Ledger) *Verifier {
	return &Verifier{
		reg:       reg,
		records:   records,
		tolerance: decimal.RequireFromString("0.001"),
	}
}

// Verify re-checks both legs on chain and cross-checks amount, timing
// and lock-reference uniqueness.
func (v *Verifier) Verify(ctx context.Context, bridgeID, callerUserID string) (*VerifyResult, error) {
	rec, err := v.records.Get(bridgeID, callerUserID)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{BridgeID: rec.BridgeID}
	res.LockVerified = v.verifyLeg(ctx, rec.FromChain, rec.LockTxRef, rec.LockAmount)
	res.ReleaseVerified = v.verifyLeg(ctx, rec.ToChain, rec.ReleaseTxRef, rec.ReleaseAmount)
	res.AmountValid = v.verifyAmount(rec)
	res.TimingValid = v.verifyTiming(rec)
	res.NoDoubleSpend = v.verifyNoDoubleSpend(rec)
	res.computeScore()

	logger.WithFields(logger.Fields{
		"bridgeId": rec.BridgeID,
		"score":    res.IntegrityScore,
	}).Debug("integrity check done")
	return res, nil
}

// verifyLeg re-fetches the leg's transaction and checks it confirmed,
// succeeded and, when the chain reports them, moved the expected
// amount. A leg that never executed does not verify.
func (v *Verifier) verifyLeg(ctx context.Context, chain, txRef string, amount decimal.Decimal) bool {
	if txRef == "" {
		return false
	}
	adapter, err := v.reg.Adapter(chains.ChainID(chain))
	if err != nil {
		return false
	}
	st, err := adapter.GetTransactionStatus(ctx, chainadapter.TxRef(txRef))
	if err != nil {
		return false
	}
	if !st.Confirmed || !st.Succeeded {
		return false
	}
	if !st.Amount.IsZero() && !st.Amount.Equal(amount) {
		return false
	}
	return true
}

// verifyAmount recomputes the release amount from the lock amount and
// the configured directional rate, within the relative tolerance.
func (v *Verifier) verifyAmount(rec *ledger.BridgeRecord) bool {
	rate, err := v.reg.ConversionRate(
		chains.Token(rec.Token),
		chains.ChainID(rec.FromChain),
		chains.ChainID(rec.ToChain),
	)
	if err != nil {
		return false
	}
	expected := rec.LockAmount.Mul(rate)
	diff := expected.Sub(rec.ReleaseAmount).Abs()
	return diff.LessThanOrEqual(expected.Mul(v.tolerance))
}

// verifyTiming checks the bridge finished (or has been running) within
// the configured maximum duration.
func (v *Verifier) verifyTiming(rec *ledger.BridgeRecord) bool {
	end := time.Now().UTC()
	if rec.CompletedAt != nil {
		end = *rec.CompletedAt
	}
	return end.Sub(rec.CreatedAt) <= v.reg.Params().MaxBridgeDuration
}

// verifyNoDoubleSpend checks no other record claims the same lock
// transaction. Vacuously true when the lock never executed.
func (v *Verifier) verifyNoDoubleSpend(rec *ledger.BridgeRecord) bool {
	if rec.LockTxRef == "" {
		return true
	}
	n, err := v.records.CountByLockTxRef(rec.LockTxRef, rec.BridgeID)
	if err != nil {
		return false
	}
	return n == 0
}
