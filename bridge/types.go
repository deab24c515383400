package bridge

import (
	"time"

	"github.com/stellargate-io/bridge-go/chains"
)

// BridgeRequest is the immutable input to Initiate. Amount stays a
// string until the validator has parsed it; binary floats never touch
// bridge amounts.
type BridgeRequest struct {
	FromChain     chains.ChainID `json:"fromChain"`
	ToChain       chains.ChainID `json:"toChain"`
	Token         chains.Token   `json:"token"`
	Amount        string         `json:"amount"`
	FromAddress   string         `json:"fromAddress"`
	ToAddress     string         `json:"toAddress"`
	UserSignature string         `json:"userSignature,omitempty"`
	RequestedAt   time.Time      `json:"requestedAt,omitempty"`
}

// FeeQuote is an on-demand estimate. It is never persisted and carries
// no freshness guarantee; re-request before acting on it.
type FeeQuote struct {
	SourceFee        string `json:"sourceFee"`
	TargetFee        string `json:"targetFee"`
	BridgeFee        string `json:"bridgeFee"`
	TotalFee         string `json:"totalFee"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// VerifyResult is the integrity verdict for one bridge record.
type VerifyResult struct {
	BridgeID        string  `json:"bridgeId"`
	LockVerified    bool    `json:"lockVerified"`
	ReleaseVerified bool    `json:"releaseVerified"`
	AmountValid     bool    `json:"amountValid"`
	TimingValid     bool    `json:"timingValid"`
	NoDoubleSpend   bool    `json:"noDoubleSpend"`
	IntegrityScore  float64 `json:"integrityScore"`
}

func (v *VerifyResult) computeScore() {
	passed := 0
	for _, ok := range []bool{v.LockVerified, v.ReleaseVerified, v.AmountValid, v.TimingValid, v.NoDoubleSpend} {
		if ok {
			passed++
		}
	}
	v.IntegrityScore = float64(passed) / 5
}
