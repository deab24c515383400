package bridge

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stellargate-io/bridge-go/chainadapter"
	"github.com/stellargate-io/bridge-go/chains"
	"github.com/stellargate-io/bridge-go/ledger"
)

const (
	testUserStellarAddr   = "GDUKMGUGDZQK6YHYA5Z6AY2G4XDSZPSZ3SW5UN3ARVMO6QSRDWP5YLEX"
	testUserEthAddr       = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	testCustodyStellar    = "GBLTXF46JTCGMWFJASQLVXMMA36IPYTDCN4EN73HRXCGSZGW4TSHXXXX"
	testCustodyEth        = "0x0000000000000000000000000000000000000b0b"
)

type testEnv struct {
	orch     *Orchestrator
	verifier *Verifier
	records  *ledger.Ledger
	reg      *chains.Registry
	sims     map[chains.ChainID]*chainadapter.SimulatedAdapter
}

func newTestEnv(t *testing.T) *testEnv {
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	records, err := ledger.NewLedger(sqlDB)
	require.NoError(t, err)

	reg := chains.DefaultRegistry(chains.DefaultParams(), chains.CustodialAddresses{
		chains.Stellar:  testCustodyStellar,
		chains.Ethereum: testCustodyEth,
		chains.Base:     testCustodyEth,
		chains.Optimism: testCustodyEth,
	})

	sims := map[chains.ChainID]*chainadapter.SimulatedAdapter{}
	for _, id := range []chains.ChainID{chains.Stellar, chains.Ethereum, chains.Base, chains.Optimism} {
		sim := chainadapter.NewSimulatedAdapter(string(id))
		sim.ConfirmAfter = time.Millisecond
		sims[id] = sim
		require.NoError(t, reg.RegisterAdapter(id, sim))
	}

	cfg := &Config{
		PollInterval:     2 * time.Millisecond,
		MaxPollAttempts:  300,
		MaxSubmitRetries: 4,
		RetryBaseDelay:   time.Millisecond,
	}

	orch := NewOrchestrator(cfg, reg, records)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orch.Shutdown(shutdownCtx)
		records.Close()
		sqlDB.Close()
	})

	return &testEnv{
		orch:     orch,
		verifier: NewVerifier(reg, records),
		records:  records,
		reg:      reg,
		sims:     sims,
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func validRequest() *BridgeRequest {
	return &BridgeRequest{
		FromChain:   chains.Stellar,
		ToChain:     chains.Ethereum,
		Token:       chains.XLM,
		Amount:      "10",
		FromAddress: testUserStellarAddr,
		ToAddress:   testUserEthAddr,
	}
}
