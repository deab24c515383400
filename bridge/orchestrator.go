package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/stellargate-io/bridge-go/chainadapter"
	"github.com/stellargate-io/bridge-go/chains"
	"github.com/stellargate-io/bridge-go/ledger"
)

var (
	ErrConfirmationTimeout = errors.New("confirmation polling exhausted")
	ErrLegFailedOnChain    = errors.New("transfer failed on chain")
)

// Orchestrator drives a bridge operation through its lifecycle:
// Initiated -> LockPending -> LockConfirmed -> ReleasePending ->
// Completed, with Error reachable from any non-terminal state.
//
// Legs of one bridge run strictly in sequence; different bridges run
// fully concurrently. All durable state lives in the ledger; the
// orchestrator only holds a transient copy while a leg is in flight.
type Orchestrator struct {
	cfg       *Config
	reg       *chains.Registry
	records   *ledger.Ledger
	validator *Validator

	// inflight guards one driver goroutine per bridgeId.
	inflight sync.Map

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg *Config, reg *chains.Registry, records *ledger.Ledger) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:       cfg,
		reg:       reg,
		records:   records,
		validator: NewValidator(reg),
		rootCtx:   ctx,
		cancel:    cancel,
	}
}

// Initiate validates the request, persists a new record and starts the
// lock leg. It returns without waiting for any confirmation; failures
// past acceptance are only observable through GetStatus.
func (o *Orchestrator) Initiate(ctx context.Context, req *BridgeRequest, callerUserID string) (*ledger.BridgeRecord, error) {
	if err := o.validator.Validate(req); err != nil {
		return nil, err
	}

	lockAmount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		// Unreachable after Validate; kept as a guard.
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, req.Amount)
	}
	rate, err := o.reg.ConversionRate(req.Token, req.FromChain, req.ToChain)
	if err != nil {
		return nil, err
	}

	rec, err := o.records.Create(ledger.CreateParams{
		OwnerUserID:   callerUserID,
		FromChain:     string(req.FromChain),
		ToChain:       string(req.ToChain),
		Token:         string(req.Token),
		FromAddress:   req.FromAddress,
		ToAddress:     req.ToAddress,
		LockAmount:    lockAmount,
		ReleaseAmount: lockAmount.Mul(rate),
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"bridgeId": rec.BridgeID,
		"from":     rec.FromChain,
		"to":       rec.ToChain,
		"amount":   rec.LockAmount,
	}).Info("bridge accepted")

	o.startDriver(rec)
	return rec, nil
}

// Resume restarts the driver for every non-terminal record. Called
// once after process start; the ledger, not memory, is the system of
// record for what is in flight.
func (o *Orchestrator) Resume() error {
	recs, err := o.records.ListUnfinished()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		logger.WithFields(logger.Fields{
			"bridgeId": rec.BridgeID,
			"status":   rec.Status,
		}).Info("resuming unfinished bridge")
		o.startDriver(rec)
	}
	return nil
}

// GetStatus returns the owner-scoped record, lazily re-checking a leg
// whose reference is set but not yet confirmed. Legs already confirmed
// are not re-checked; the call is idempotent and safe to race.
func (o *Orchestrator) GetStatus(ctx context.Context, bridgeID, callerUserID string) (*ledger.BridgeRecord, error) {
	rec, err := o.records.Get(bridgeID, callerUserID)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return rec, nil
	}

	switch rec.Status {
	case ledger.StatusLockPending:
		if rec.LockTxRef == "" {
			return rec, nil
		}
		return o.refreshLeg(ctx, rec, rec.FromChain, chainadapter.TxRef(rec.LockTxRef), ledger.StatusLockConfirmed)
	case ledger.StatusReleasePending:
		if rec.ReleaseTxRef == "" {
			return rec, nil
		}
		return o.refreshLeg(ctx, rec, rec.ToChain, chainadapter.TxRef(rec.ReleaseTxRef), ledger.StatusCompleted)
	}
	return rec, nil
}

// Shutdown stops accepting driver work and waits for in-flight legs.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (o *Orchestrator) startDriver(rec *ledger.BridgeRecord) {
	if _, loaded := o.inflight.LoadOrStore(rec.BridgeID, struct{}{}); loaded {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.inflight.Delete(rec.BridgeID)
		o.drive(o.rootCtx, rec)
	}()
}

// drive advances one record until it parks in a terminal state. Each
// transition is written through the ledger, whose CAS arbitrates races
// with concurrent GetStatus refreshes; drive always continues from the
// status the ledger actually stored.
func (o *Orchestrator) drive(ctx context.Context, rec *ledger.BridgeRecord) {
	bridgeLogger := logger.WithField("bridgeId", rec.BridgeID)

	for !rec.Status.Terminal() {
		if ctx.Err() != nil {
			bridgeLogger.Warn("driver stopped before terminal state")
			return
		}

		var err error
		switch rec.Status {
		case ledger.StatusInitiated:
			rec, err = o.transition(rec.BridgeID, ledger.StatusLockPending, nil)
		case ledger.StatusLockPending:
			rec, err = o.runLockLeg(ctx, rec, bridgeLogger)
		case ledger.StatusLockConfirmed:
			rec, err = o.transition(rec.BridgeID, ledger.StatusReleasePending, nil)
		case ledger.StatusReleasePending:
			rec, err = o.runReleaseLeg(ctx, rec, bridgeLogger)
		}
		if err != nil {
			bridgeLogger.WithError(err).Error("bridge driver stopped on ledger error")
			return
		}
	}

	bridgeLogger.WithField("status", rec.Status).Info("bridge reached terminal state")
}

// runLockLeg moves the lock amount from the user into bridge custody
// on the source chain and waits for confirmation.
func (o *Orchestrator) runLockLeg(ctx context.Context, rec *ledger.BridgeRecord, bridgeLogger *logger.Entry) (*ledger.BridgeRecord, error) {
	fromCfg, _ := o.reg.Chain(chains.ChainID(rec.FromChain))
	adapter, err := o.reg.Adapter(chains.ChainID(rec.FromChain))
	if err != nil {
		return o.fail(rec.BridgeID, fmt.Sprintf("lock leg: %v", err))
	}

	if rec.LockTxRef == "" {
		ref, err := o.submitWithRetry(ctx, adapter, rec.FromAddress, fromCfg.CustodialAddress, rec.LockAmount, memoFor(rec))
		if err != nil {
			bridgeLogger.WithError(err).Error("lock submission failed")
			return o.fail(rec.BridgeID, fmt.Sprintf("lock leg: %v", err))
		}
		rec, err = o.records.Update(rec.BridgeID, func(r *ledger.BridgeRecord) error {
			r.LockTxRef = string(ref)
			return nil
		})
		if err != nil {
			return nil, err
		}
		bridgeLogger.WithField("lockTxRef", rec.LockTxRef).Debug("lock submitted")
	}

	if err := o.waitConfirmed(ctx, adapter, chainadapter.TxRef(rec.LockTxRef)); err != nil {
		bridgeLogger.WithError(err).Error("lock confirmation failed")
		return o.fail(rec.BridgeID, fmt.Sprintf("lock leg: %v", err))
	}
	return o.transition(rec.BridgeID, ledger.StatusLockConfirmed, nil)
}

// runReleaseLeg moves the release amount out of bridge custody to the
// user on the destination chain. A failure here leaves the record in
// Error with the executed lock still recorded: funds locked but not
// released is a distinct, auditable condition.
func (o *Orchestrator) runReleaseLeg(ctx context.Context, rec *ledger.BridgeRecord, bridgeLogger *logger.Entry) (*ledger.BridgeRecord, error) {
	toCfg, _ := o.reg.Chain(chains.ChainID(rec.ToChain))
	adapter, err := o.reg.Adapter(chains.ChainID(rec.ToChain))
	if err != nil {
		return o.fail(rec.BridgeID, fmt.Sprintf("release leg: %v", err))
	}

	if rec.ReleaseTxRef == "" {
		ref, err := o.submitWithRetry(ctx, adapter, toCfg.CustodialAddress, rec.ToAddress, rec.ReleaseAmount, memoFor(rec))
		if err != nil {
			bridgeLogger.WithError(err).Error("release submission failed after executed lock")
			return o.fail(rec.BridgeID, fmt.Sprintf("release leg failed after lock executed: %v", err))
		}
		rec, err = o.records.Update(rec.BridgeID, func(r *ledger.BridgeRecord) error {
			r.ReleaseTxRef = string(ref)
			return nil
		})
		if err != nil {
			return nil, err
		}
		bridgeLogger.WithField("releaseTxRef", rec.ReleaseTxRef).Debug("release submitted")
	}

	if err := o.waitConfirmed(ctx, adapter, chainadapter.TxRef(rec.ReleaseTxRef)); err != nil {
		bridgeLogger.WithError(err).Error("release confirmation failed after executed lock")
		return o.fail(rec.BridgeID, fmt.Sprintf("release leg failed after lock executed: %v", err))
	}

	now := time.Now().UTC()
	return o.transition(rec.BridgeID, ledger.StatusCompleted, &now)
}

func (o *Orchestrator) transition(bridgeID string, to ledger.Status, completedAt *time.Time) (*ledger.BridgeRecord, error) {
	return o.records.Update(bridgeID, func(r *ledger.BridgeRecord) error {
		r.Status = to
		if completedAt != nil {
			r.CompletedAt = completedAt
		}
		return nil
	})
}

func (o *Orchestrator) fail(bridgeID, detail string) (*ledger.BridgeRecord, error) {
	return o.records.Update(bridgeID, func(r *ledger.BridgeRecord) error {
		r.Status = ledger.StatusError
		r.ErrorDetail = detail
		return nil
	})
}

// submitWithRetry retries transient adapter failures with exponential
// backoff. A permanent rejection aborts immediately.
func (o *Orchestrator) submitWithRetry(
	ctx context.Context,
	adapter chainadapter.ChainAdapter,
	from, to string,
	amount decimal.Decimal,
	memo string,
) (chainadapter.TxRef, error) {
	var ref chainadapter.TxRef
	backoff := retry.WithMaxRetries(o.cfg.MaxSubmitRetries, retry.NewExponential(o.cfg.RetryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := adapter.SubmitNativeTransfer(ctx, from, to, amount, memo)
		if err != nil {
			if errors.Is(err, chainadapter.ErrNetworkUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		ref = r
		return nil
	})
	return ref, err
}

// waitConfirmed polls the adapter until the transfer confirms, fails
// on chain, or the attempt budget runs out. Not-found and transient
// errors both count as "not yet confirmed".
func (o *Orchestrator) waitConfirmed(ctx context.Context, adapter chainadapter.ChainAdapter, ref chainadapter.TxRef) error {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < o.cfg.MaxPollAttempts; attempt++ {
		st, err := adapter.GetTransactionStatus(ctx, ref)
		switch {
		case errors.Is(err, chainadapter.ErrTxNotFound):
			// Not indexed yet; keep polling.
		case errors.Is(err, chainadapter.ErrNetworkUnavailable):
			// Transient; keep polling within the attempt budget.
		case err != nil:
			return err
		case st.Confirmed && st.Succeeded:
			return nil
		case st.Confirmed:
			return fmt.Errorf("%w: %s", ErrLegFailedOnChain, ref)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return fmt.Errorf("%w: %s", ErrConfirmationTimeout, ref)
}

// refreshLeg performs the lazy status refresh behind GetStatus.
func (o *Orchestrator) refreshLeg(
	ctx context.Context,
	rec *ledger.BridgeRecord,
	chain string,
	ref chainadapter.TxRef,
	onConfirmed ledger.Status,
) (*ledger.BridgeRecord, error) {
	adapter, err := o.reg.Adapter(chains.ChainID(chain))
	if err != nil {
		return rec, nil
	}

	st, err := adapter.GetTransactionStatus(ctx, ref)
	if err != nil || !st.Confirmed {
		// Unknown or in flight; report the stored record as-is.
		return rec, nil
	}

	if !st.Succeeded {
		updated, err := o.fail(rec.BridgeID, fmt.Sprintf("%s: %s", ErrLegFailedOnChain, ref))
		if err != nil {
			return rec, nil
		}
		return updated, nil
	}

	var completedAt *time.Time
	if onConfirmed == ledger.StatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	updated, err := o.transition(rec.BridgeID, onConfirmed, completedAt)
	if err != nil {
		return rec, nil
	}
	return updated, nil
}

func memoFor(rec *ledger.BridgeRecord) string {
	return fmt.Sprintf("bridge:%s", rec.BridgeID)
}
