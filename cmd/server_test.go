package cmd_test

// Notice:
// This test boots the whole server against a simulated Horizon and a
// fake signing service. It covers the wiring, the http surface and the
// resume-on-start path, not chain semantics (those live in the
// per-adapter and bridge package tests).

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellargate-io/bridge-go/cmd"
	"github.com/stellargate-io/bridge-go/ledger"
	"github.com/stellargate-io/bridge-go/logconfig"
	"github.com/stellargate-io/bridge-go/reporter"
	"github.com/stellargate-io/bridge-go/stellarman"
)

const (
	HTTP_IP   = "127.0.0.1"
	HTTP_PORT = "18089"

	API_TOKEN = "itest-token"
	API_USER  = "itest-user"

	STELLAR_CUSTODY_ADDR = "GBLTXF46JTCGMWFJASQLVXMMA36IPYTDCN4EN73HRXCGSZGW4TSHXXXX"
	STELLAR_USER_ADDR    = "GDUKMGUGDZQK6YHYA5Z6AY2G4XDSZPSZ3SW5UN3ARVMO6QSRDWP5YLEX"
	ETH_USER_ADDR        = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
	ETH_CUSTODY_ADDR     = "0x0000000000000000000000000000000000000b0b"
)

// Random file name generator
func randFileName(prefix string, suffix string) string {
	return prefix + uuid.NewString() + suffix
}

// call it to get the db file name.
func setupDBFile() string {
	return randFileName("test_", ".db")
}

// call it in defer
func rmFile(name string) {
	os.Remove(name)
}

func MakeBridgeServerConfig(dbfile, horizonURL string) *cmd.BridgeServerConfig {
	return &cmd.BridgeServerConfig{
		DbFilePath: dbfile,

		// stellar side
		HorizonUrl:           horizonURL,
		StellarNetwork:       "testnet",
		StellarSignerUrl:     horizonURL + "/sign", // unused: the lock fails before signing
		StellarCustodialAddr: STELLAR_CUSTODY_ADDR,

		// evm side left unconfigured: those chains are disabled

		// http side
		HttpIp:   HTTP_IP,
		HttpPort: HTTP_PORT,

		ApiTokens: map[string]string{API_TOKEN: API_USER},
	}
}

func TestServerEndToEnd(t *testing.T) {
	logconfig.ConfigInfoLogger()

	horizon := stellarman.NewSimulatedHorizon(STELLAR_CUSTODY_ADDR, STELLAR_USER_ADDR)
	defer horizon.Close()

	db_file_name := setupDBFile()
	defer rmFile(db_file_name)
	t.Logf("db file name: %s", db_file_name)

	bsc := MakeBridgeServerConfig(db_file_name, horizon.URL())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	bs, err := cmd.NewBridgeServer(bsc, ctx, &wg)
	require.NoError(t, err)
	require.NotNil(t, bs.MyLedger)
	require.NotNil(t, bs.MyOrchestrator)

	http_reader := reporter.NewHttpReader("http://"+HTTP_IP+":"+HTTP_PORT, API_TOKEN)

	// Public routes are up.
	code, body, err := http_reader.GetChains()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, "stellar")

	code, body, err = http_reader.GetState()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, "ok")

	// Estimation works through the wired registry.
	code, body, err = http_reader.PostEstimate(map[string]string{
		"fromChain": "stellar",
		"toChain":   "ethereum",
		"amount":    "100",
		"token":     "XLM",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, "0.10101")

	// Initiate is accepted; the lock leg then fails because the
	// custody signer cannot spend from the user's account and the
	// ethereum chain is disabled. The record must park in Error with
	// the failure recorded, not vanish.
	code, body, err = http_reader.PostInitiate(map[string]string{
		"fromChain":   "stellar",
		"toChain":     "ethereum",
		"token":       "XLM",
		"amount":      "10",
		"fromAddress": STELLAR_USER_ADDR,
		"toAddress":   ETH_USER_ADDR,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code, body)

	var out struct {
		Record ledger.JSONBridgeRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out.Record.BridgeID)

	require.Eventually(t, func() bool {
		code, body, err := http_reader.GetStatus(out.Record.BridgeID)
		if err != nil || code != http.StatusOK {
			return false
		}
		require.NoError(t, json.Unmarshal([]byte(body), &out))
		return out.Record.Status == string(ledger.StatusError)
	}, 10*time.Second, 100*time.Millisecond)
	assert.Contains(t, out.Record.ErrorDetail, "lock leg")

	// Unauthenticated callers stay out.
	anon := reporter.NewHttpReader("http://"+HTTP_IP+":"+HTTP_PORT, "")
	code, _, err = anon.GetStatus(out.Record.BridgeID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)

	cancel()  // cancel() signals ctx.Done(), so ends sub go routines politely.
	wg.Wait() // wait for all the routines to be completed then stop the main go routine.

	// A fresh server over the same db resumes cleanly with the
	// terminal record intact.
	ctx2, cancel2 := context.WithCancel(context.Background())
	var wg2 sync.WaitGroup
	bsc2 := MakeBridgeServerConfig(db_file_name, horizon.URL())
	bsc2.HttpPort = "18090"

	bs2, err := cmd.NewBridgeServer(bsc2, ctx2, &wg2)
	require.NoError(t, err)

	rec, err := bs2.MyLedger.Get(out.Record.BridgeID, API_USER)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusError, rec.Status)

	cancel2()
	wg2.Wait()
}
