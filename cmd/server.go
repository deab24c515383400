// Server = chain adapters + ledger + orchestrator + http reporter.
// All components are configured via envionment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/stellargate-io/bridge-go/bridge"
	"github.com/stellargate-io/bridge-go/chains"
	"github.com/stellargate-io/bridge-go/ethman"
	"github.com/stellargate-io/bridge-go/ledger"
	"github.com/stellargate-io/bridge-go/reporter"
	"github.com/stellargate-io/bridge-go/stellarman"
)

// shutdownGrace bounds how long in-flight legs may run after a stop
// signal before the process gives up waiting.
const shutdownGrace = 30 * time.Second

// EVMChainConfig configures one account-balance chain.
type EVMChainConfig struct {
	RpcUrl         string // json rpc url, empty disables the chain
	ChainId        int64
	Confirmations  uint64
	CustodialAddr  string // address user deposits flow into
	CustodialPrivs []string // private keys of spendable accounts
}

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type BridgeServerConfig struct {
	// ledger side
	DbFilePath string // db file path

	// stellar side
	HorizonUrl          string
	StellarNetwork      string // "public" or "testnet"
	StellarSignerUrl    string // external signing service
	StellarCustodialAddr string

	// evm side
	Eth      EVMChainConfig
	Base     EVMChainConfig
	Optimism EVMChainConfig

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080

	// ApiTokens maps bearer tokens to caller user ids.
	ApiTokens map[string]string
}

// BridgeServer holds the objects that consists of the bridge server.
type BridgeServer struct {
	MyLedger       *ledger.Ledger
	MyRegistry     *chains.Registry
	MyOrchestrator *bridge.Orchestrator
	MyEstimator    *bridge.Estimator
	MyVerifier     *bridge.Verifier
	MyReporter     *reporter.HttpReporter
}

// NewBridgeServer creates a new bridge server.
// ctx is used for parental context to cancel the operation of bridge server.
// wg is used to wait for all the goroutines inside the server to finish.
func NewBridgeServer(bsc *BridgeServerConfig, ctx context.Context, wg *sync.WaitGroup) (*BridgeServer, error) {
	// Create sql db and the bridge ledger over it.
	sqldb, err := sql.Open("sqlite3", bsc.DbFilePath)
	if err != nil {
		logger.Errorf("failed to open db file: %v", err)
		return nil, err
	}

	myLedger, err := ledger.NewLedger(sqldb)
	if err != nil {
		logger.Errorf("failed to create bridge ledger: %v", err)
		return nil, err
	}

	// Build the chain registry with the custodial accounts.
	myRegistry := chains.DefaultRegistry(chains.DefaultParams(), chains.CustodialAddresses{
		chains.Stellar:  bsc.StellarCustodialAddr,
		chains.Ethereum: bsc.Eth.CustodialAddr,
		chains.Base:     bsc.Base.CustodialAddr,
		chains.Optimism: bsc.Optimism.CustodialAddr,
	})

	// Stellar adapter, signing delegated to the external service.
	if bsc.HorizonUrl != "" {
		passphrase := stellarman.TestnetNetworkPassphrase
		if bsc.StellarNetwork == "public" {
			passphrase = stellarman.PublicNetworkPassphrase
		}
		signer := stellarman.NewRemoteSigner(bsc.StellarCustodialAddr, bsc.StellarSignerUrl)
		myStellarman := stellarman.NewStellarman(&stellarman.Config{
			HorizonURL:        bsc.HorizonUrl,
			NetworkPassphrase: passphrase,
		}, signer)
		if err := myRegistry.RegisterAdapter(chains.Stellar, myStellarman); err != nil {
			return nil, err
		}
	}

	// EVM adapters.
	evmChains := map[chains.ChainID]EVMChainConfig{
		chains.Ethereum: bsc.Eth,
		chains.Base:     bsc.Base,
		chains.Optimism: bsc.Optimism,
	}
	for id, chainCfg := range evmChains {
		if chainCfg.RpcUrl == "" {
			logger.WithField("chain", id).Warn("no rpc url, chain disabled")
			continue
		}
		myEthman, err := ethman.NewEthman(&ethman.Config{
			URL:           chainCfg.RpcUrl,
			ChainID:       chainCfg.ChainId,
			Confirmations: chainCfg.Confirmations,
			PrivateKeys:   chainCfg.CustodialPrivs,
		})
		if err != nil {
			logger.Errorf("failed to create ethman for %s: %v", id, err)
			return nil, err
		}
		if err := myRegistry.RegisterAdapter(id, myEthman); err != nil {
			return nil, err
		}
	}

	// Orchestrator over ledger + registry.
	myOrchestrator := bridge.NewOrchestrator(bridge.DefaultConfig(), myRegistry, myLedger)

	// Re-drive whatever the previous process left unfinished.
	if err := myOrchestrator.Resume(); err != nil {
		logger.Errorf("failed to resume unfinished bridges: %v", err)
		return nil, err
	}

	myEstimator := bridge.NewEstimator(myRegistry)
	myVerifier := bridge.NewVerifier(myRegistry, myLedger)

	// *** Setup a http server to report status ***
	http_server := reporter.NewHttpReporter(
		bsc.HttpIp,
		bsc.HttpPort,
		myOrchestrator,
		myEstimator,
		myVerifier,
		myLedger,
		myRegistry,
		reporter.StaticIdentity(bsc.ApiTokens),
	)
	// Turn on the http server
	go http_server.Run()

	// Give it some time to start the http server
	time.Sleep(1 * time.Second)
	// *** End the setup of http server ***

	// Tie the orchestrator lifetime to the parental context.
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := myOrchestrator.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("orchestrator shutdown incomplete: %v", err)
		}
		myLedger.Close()
		sqldb.Close()
	}()
	// Don't forget to call wg.Wait() in the main routine.

	return &BridgeServer{
		MyLedger:       myLedger,
		MyRegistry:     myRegistry,
		MyOrchestrator: myOrchestrator,
		MyEstimator:    myEstimator,
		MyVerifier:     myVerifier,
		MyReporter:     http_server,
	}, nil
}

// Create, then start the bridge server and wait.
// It contains a prepared bridge server and context + waitgroup.
// Press Ctrl-C to kill the server.
func StartBridgeServerAndWait(bsc *BridgeServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	_, err := NewBridgeServer(bsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create bridge server: %v", err)
		return
	}

	// wait for all routines to finish
	wg.Wait()
}
