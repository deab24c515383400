package ethman

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

// weiDecimals is the native asset precision on every supported EVM
// chain.
const weiDecimals = 18

// defaultBlockInterval is used when the chain has not produced two
// distinct block timestamps to measure from.
const defaultBlockInterval = 12 * time.Second

type ethereumClient interface {
	ethereum.ChainReader
	ethereum.ChainIDReader
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.PendingStateReader
	ethereum.TransactionReader
	ethereum.TransactionSender
}

// Ethman moves the native asset on one EVM chain. It implements
// chainadapter.ChainAdapter; transfers are plain value transactions
// carrying the bridge memo in calldata.
type Ethman struct {
	ethClient     ethereumClient
	chainID       *big.Int
	confirmations uint64
	keys          map[ethcommon.Address]*ecdsa.PrivateKey

	// nonceMu serializes nonce allocation across concurrent submits
	// from the same accounts.
	nonceMu sync.Mutex
}

func NewEthman(cfg *Config) (*Ethman, error) {
	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	return newEthman(ethClient, cfg)
}

// NewEthmanWithClient wires an existing client, e.g. a simulated
// backend in tests.
func NewEthmanWithClient(ethClient ethereumClient, cfg *Config) (*Ethman, error) {
	return newEthman(ethClient, cfg)
}

func newEthman(ethClient ethereumClient, cfg *Config) (*Ethman, error) {
	keys := make(map[ethcommon.Address]*ecdsa.PrivateKey, len(cfg.PrivateKeys))
	for _, hexKey := range cfg.PrivateKeys {
		sk, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		keys[crypto.PubkeyToAddress(sk.PublicKey)] = sk
	}

	confirmations := cfg.Confirmations
	if confirmations == 0 {
		confirmations = 1
	}

	return &Ethman{
		ethClient:     ethClient,
		chainID:       big.NewInt(cfg.ChainID),
		confirmations: confirmations,
		keys:          keys,
	}, nil
}

func (e *Ethman) SubmitNativeTransfer(ctx context.Context, from, to string, amount decimal.Decimal, memo string) (chainadapter.TxRef, error) {
	if !ethcommon.IsHexAddress(from) || !ethcommon.IsHexAddress(to) {
		return "", fmt.Errorf("%w: malformed address", chainadapter.ErrTransactionRejected)
	}
	fromAddr := ethcommon.HexToAddress(from)
	toAddr := ethcommon.HexToAddress(to)

	sk, ok := e.keys[fromAddr]
	if !ok {
		return "", fmt.Errorf("%w: no signing key for %s", chainadapter.ErrTransactionRejected, from)
	}

	wei := amount.Shift(weiDecimals)
	if !wei.Equal(wei.Truncate(0)) || !wei.IsPositive() {
		return "", fmt.Errorf("%w: amount %s is not a positive wei quantity", chainadapter.ErrTransactionRejected, amount)
	}
	value := wei.BigInt()
	data := []byte(memo)

	e.nonceMu.Lock()
	defer e.nonceMu.Unlock()

	nonce, err := e.ethClient.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return "", classifySubmitError(err)
	}
	gasPrice, err := e.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", classifySubmitError(err)
	}
	gas, err := e.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:  fromAddr,
		To:    &toAddr,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", classifySubmitError(err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &toAddr,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), sk)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chainadapter.ErrTransactionRejected, err)
	}

	if err := e.ethClient.SendTransaction(ctx, signed); err != nil {
		return "", classifySubmitError(err)
	}
	return chainadapter.TxRef(signed.Hash().Hex()), nil
}

func (e *Ethman) GetTransactionStatus(ctx context.Context, ref chainadapter.TxRef) (chainadapter.TxStatus, error) {
	hash := ethcommon.HexToHash(string(ref))

	receipt, err := e.ethClient.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		// Either still in the mempool or never seen; both read as
		// not yet confirmed.
		return chainadapter.TxStatus{}, fmt.Errorf("%w: %s", chainadapter.ErrTxNotFound, ref)
	}
	if err != nil {
		return chainadapter.TxStatus{}, classifyStatusError(err)
	}

	head, err := e.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return chainadapter.TxStatus{}, classifyStatusError(err)
	}

	st := chainadapter.TxStatus{ObservedAt: time.Now().UTC()}

	depth := new(big.Int).Sub(head.Number, receipt.BlockNumber)
	if depth.Sign() >= 0 && depth.Uint64()+1 >= e.confirmations {
		st.Confirmed = true
		st.Succeeded = receipt.Status == types.ReceiptStatusSuccessful
	}

	tx, _, err := e.ethClient.TransactionByHash(ctx, hash)
	if err == nil && tx != nil {
		st.Amount = decimal.NewFromBigInt(tx.Value(), -weiDecimals)
		if tx.To() != nil {
			st.Recipient = tx.To().Hex()
		}
	}
	return st, nil
}

// EstimateConfirmationLatency measures the spacing of the last two
// blocks and projects it over the confirmation depth.
func (e *Ethman) EstimateConfirmationLatency(ctx context.Context) (time.Duration, error) {
	head, err := e.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, classifyStatusError(err)
	}

	interval := defaultBlockInterval
	if head.Number.Sign() > 0 {
		prev, err := e.ethClient.HeaderByNumber(ctx, new(big.Int).Sub(head.Number, big.NewInt(1)))
		if err == nil && head.Time > prev.Time {
			interval = time.Duration(head.Time-prev.Time) * time.Second
		}
	}
	return interval * time.Duration(e.confirmations), nil
}

// Addresses returns the accounts this instance can spend from.
func (e *Ethman) Addresses() []ethcommon.Address {
	out := make([]ethcommon.Address, 0, len(e.keys))
	for addr := range e.keys {
		out = append(out, addr)
	}
	return out
}
