package bridge

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stellargate-io/bridge-go/chains"
)

// Estimator computes fee quotes. Pure lookup and arithmetic; the
// returned quote is never stored and may go stale.
type Estimator struct {
	reg *chains.Registry
}

func NewEstimator(reg *chains.Registry) *Estimator {
	return &Estimator{reg: reg}
}

// Estimate returns the per-chain base fees, the bridge commission and
// the expected settlement time for a route. Base fees are flat per
// chain; only the commission scales with the amount.
func (e *Estimator) Estimate(fromChain, toChain chains.ChainID, amount string, token chains.Token) (*FeeQuote, error) {
	fromCfg, ok := e.reg.Chain(fromChain)
	if !ok {
		return nil, fmt.Errorf("%w: %s", chains.ErrUnknownChain, fromChain)
	}
	toCfg, ok := e.reg.Chain(toChain)
	if !ok {
		return nil, fmt.Errorf("%w: %s", chains.ErrUnknownChain, toChain)
	}
	if _, ok := e.reg.Token(token); !ok {
		return nil, fmt.Errorf("%w: %s", chains.ErrUnknownToken, token)
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !amt.IsPositive() {
		return nil, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}

	bridgeFee := amt.Mul(e.reg.Params().BridgeFeePercent)
	total := fromCfg.BaseFee.Add(toCfg.BaseFee).Add(bridgeFee)

	return &FeeQuote{
		SourceFee:        fromCfg.BaseFee.String(),
		TargetFee:        toCfg.BaseFee.String(),
		BridgeFee:        bridgeFee.String(),
		TotalFee:         total.String(),
		EstimatedMinutes: e.reg.EstimatedMinutes(fromChain, toChain),
	}, nil
}
