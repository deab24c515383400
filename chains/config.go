// Static per-chain and per-token metadata. Loaded once at process
// start, read-only afterwards.

package chains

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainID identifies a supported chain.
type ChainID string

const (
	Stellar  ChainID = "stellar"
	Ethereum ChainID = "ethereum"
	Base     ChainID = "base"
	Optimism ChainID = "optimism"
)

// Family selects the address/transaction model of a chain.
type Family string

const (
	// FamilyLedgerAccount covers Stellar-style chains: sequence
	// numbers, native asset payments, text memos.
	FamilyLedgerAccount Family = "ledger-account"
	// FamilyAccountBalance covers Ethereum-style chains: nonces, gas,
	// native value transfers.
	FamilyAccountBalance Family = "account-balance"
)

// Token is a bridgeable asset symbol.
type Token string

const (
	XLM  Token = "XLM"
	ETH  Token = "ETH"
	USDC Token = "USDC"
)

// ChainConfig describes one chain.
type ChainConfig struct {
	ID               ChainID
	Name             string
	Family           Family
	NativeAsset      Token
	ExplorerURL      string
	CustodialAddress string

	// BaseFee is the flat network fee for a simple transfer,
	// denominated in the chain's native asset. Not amount-scaled.
	BaseFee decimal.Decimal

	// ConfirmationTime is the typical settlement latency.
	ConfirmationTime time.Duration

	ConfirmationBlocks uint64
}

// TokenConfig describes one bridgeable asset.
type TokenConfig struct {
	Symbol   Token
	Name     string
	Decimals int32
	Chains   []ChainID
	Native   bool

	// Issuers maps a chain to the token's issuer account or contract
	// address there. Empty for native assets.
	Issuers map[ChainID]string
}

// EligibleOn reports whether the token can be bridged on the chain.
func (tc *TokenConfig) EligibleOn(chain ChainID) bool {
	for _, c := range tc.Chains {
		if c == chain {
			return true
		}
	}
	return false
}

// Params are the bridge-wide operating bounds.
type Params struct {
	// MinAmount and MaxAmount are inclusive bounds on the lock amount.
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	// BridgeFeePercent is the commission as a fraction (0.001 = 0.1%).
	BridgeFeePercent decimal.Decimal

	// MaxBridgeDuration bounds a healthy request-to-completion window.
	MaxBridgeDuration time.Duration
}

// DefaultParams returns the stock operating bounds.
func DefaultParams() Params {
	return Params{
		MinAmount:         decimal.RequireFromString("0.0001"),
		MaxAmount:         decimal.NewFromInt(10000),
		BridgeFeePercent:  decimal.RequireFromString("0.001"),
		MaxBridgeDuration: 10 * time.Minute,
	}
}
