package chainadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SimulatedAdapter is an in-memory ChainAdapter for tests. It confirms
// a submitted transfer after ConfirmAfter has elapsed and supports
// failure injection for both submission and status calls.
type SimulatedAdapter struct {
	ChainName    string
	ConfirmAfter time.Duration
	Latency      time.Duration

	// RejectSubmit makes every SubmitNativeTransfer fail permanently.
	RejectSubmit bool
	// TransientSubmitFailures fails this many submissions with
	// ErrNetworkUnavailable before accepting one.
	TransientSubmitFailures int
	// FailOnChain confirms transfers as failed instead of succeeded.
	FailOnChain bool

	mu     sync.Mutex
	seq    uint64
	nextID int
	subs   map[TxRef]*SimulatedSubmission
}

// SimulatedSubmission records one accepted transfer.
type SimulatedSubmission struct {
	From, To    string
	Amount      decimal.Decimal
	Memo        string
	SubmittedAt time.Time
	Sequence    uint64
}

func NewSimulatedAdapter(chainName string) *SimulatedAdapter {
	return &SimulatedAdapter{
		ChainName:    chainName,
		ConfirmAfter: 10 * time.Millisecond,
		Latency:      5 * time.Second,
		subs:         map[TxRef]*SimulatedSubmission{},
	}
}

func (s *SimulatedAdapter) SubmitNativeTransfer(ctx context.Context, from, to string, amount decimal.Decimal, memo string) (TxRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.RejectSubmit {
		return "", fmt.Errorf("%w: simulated rejection on %s", ErrTransactionRejected, s.ChainName)
	}
	if s.TransientSubmitFailures > 0 {
		s.TransientSubmitFailures--
		return "", fmt.Errorf("%w: simulated outage on %s", ErrNetworkUnavailable, s.ChainName)
	}

	s.seq++
	s.nextID++
	ref := TxRef(fmt.Sprintf("sim-%s-%d", s.ChainName, s.nextID))
	s.subs[ref] = &SimulatedSubmission{
		From:        from,
		To:          to,
		Amount:      amount,
		Memo:        memo,
		SubmittedAt: time.Now(),
		Sequence:    s.seq,
	}
	return ref, nil
}

func (s *SimulatedAdapter) GetTransactionStatus(ctx context.Context, ref TxRef) (TxStatus, error) {
	if err := ctx.Err(); err != nil {
		return TxStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[ref]
	if !ok {
		return TxStatus{}, fmt.Errorf("%w: %s", ErrTxNotFound, ref)
	}

	now := time.Now()
	st := TxStatus{
		ObservedAt: now,
		Amount:     sub.Amount,
		Recipient:  sub.To,
	}
	if now.Sub(sub.SubmittedAt) >= s.ConfirmAfter {
		st.Confirmed = true
		st.Succeeded = !s.FailOnChain
	}
	return st, nil
}

func (s *SimulatedAdapter) EstimateConfirmationLatency(ctx context.Context) (time.Duration, error) {
	return s.Latency, nil
}

// Submissions returns accepted transfers in submission order.
func (s *SimulatedAdapter) Submissions() []*SimulatedSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*SimulatedSubmission, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Sequence < out[i].Sequence {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
