package stellarman

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

const (
	custodyAccount = "GBLTXF46JTCGMWFJASQLVXMMA36IPYTDCN4EN73HRXCGSZGW4TSHXXXX"
	userAccount    = "GDUKMGUGDZQK6YHYA5Z6AY2G4XDSZPSZ3SW5UN3ARVMO6QSRDWP5YLEX"
)

func newTestStellarman(t *testing.T) (*Stellarman, *SimulatedHorizon, *StaticSigner) {
	t.Helper()

	horizon := NewSimulatedHorizon(custodyAccount, userAccount)
	t.Cleanup(horizon.Close)

	signer := &StaticSigner{Account: custodyAccount}
	sm := NewStellarman(&Config{
		HorizonURL:        horizon.URL(),
		NetworkPassphrase: TestnetNetworkPassphrase,
	}, signer)
	return sm, horizon, signer
}

func TestSubmitAndConfirmPayment(t *testing.T) {
	sm, _, _ := newTestStellarman(t)
	ctx := context.Background()

	ref, err := sm.SubmitNativeTransfer(ctx, custodyAccount, userAccount, decimal.RequireFromString("10.5"), "bridge:test-1")
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	st, err := sm.GetTransactionStatus(ctx, ref)
	require.NoError(t, err)
	assert.True(t, st.Confirmed)
	assert.True(t, st.Succeeded)
	assert.Equal(t, "10.5", st.Amount.String())
	assert.Equal(t, userAccount, st.Recipient)
}

func TestSubmitNoSignerForAccount(t *testing.T) {
	sm, _, _ := newTestStellarman(t)

	_, err := sm.SubmitNativeTransfer(context.Background(), userAccount, custodyAccount, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, chainadapter.ErrTransactionRejected)
}

func TestSubmitSignerFailure(t *testing.T) {
	sm, _, signer := newTestStellarman(t)
	signer.FailSigning = true

	_, err := sm.SubmitNativeTransfer(context.Background(), custodyAccount, userAccount, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, chainadapter.ErrTransactionRejected)
}

func TestSubmitHorizonRejection(t *testing.T) {
	sm, horizon, _ := newTestStellarman(t)
	horizon.RejectSubmissions = true

	_, err := sm.SubmitNativeTransfer(context.Background(), custodyAccount, userAccount, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, chainadapter.ErrTransactionRejected)
	assert.Contains(t, err.Error(), "tx_failed")
}

func TestSubmitHorizonUnavailable(t *testing.T) {
	sm, horizon, _ := newTestStellarman(t)
	horizon.Unavailable = true

	_, err := sm.SubmitNativeTransfer(context.Background(), custodyAccount, userAccount, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, chainadapter.ErrNetworkUnavailable)
}

func TestStatusUnknownTransaction(t *testing.T) {
	sm, _, _ := newTestStellarman(t)

	_, err := sm.GetTransactionStatus(context.Background(), chainadapter.TxRef("simhash-999"))
	assert.ErrorIs(t, err, chainadapter.ErrTxNotFound)
}

func TestFailedOnLedger(t *testing.T) {
	sm, horizon, _ := newTestStellarman(t)
	horizon.FailOnLedger = true
	ctx := context.Background()

	ref, err := sm.SubmitNativeTransfer(ctx, custodyAccount, userAccount, decimal.NewFromInt(2), "")
	require.NoError(t, err)

	st, err := sm.GetTransactionStatus(ctx, ref)
	require.NoError(t, err)
	assert.True(t, st.Confirmed)
	assert.False(t, st.Succeeded)
}

func TestSequenceAdvancesPerSubmission(t *testing.T) {
	sm, _, _ := newTestStellarman(t)
	ctx := context.Background()

	ref1, err := sm.SubmitNativeTransfer(ctx, custodyAccount, userAccount, decimal.NewFromInt(1), "")
	require.NoError(t, err)
	ref2, err := sm.SubmitNativeTransfer(ctx, custodyAccount, userAccount, decimal.NewFromInt(1), "")
	require.NoError(t, err)
	assert.NotEqual(t, ref1, ref2)
}

func TestEstimateConfirmationLatency(t *testing.T) {
	sm, horizon, _ := newTestStellarman(t)
	horizon.SetLedgerGap(6 * time.Second)

	latency, err := sm.EstimateConfirmationLatency(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, (6 * time.Second).Seconds(), latency.Seconds(), 0.5)
}
