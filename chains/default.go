package chains

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustodialAddresses carries the bridge-controlled account per chain.
// These come from deployment configuration, never from code.
type CustodialAddresses map[ChainID]string

// DefaultRegistry builds the stock chain/token/rate tables.
func DefaultRegistry(params Params, custodial CustodialAddresses) *Registry {
	r := NewRegistry(params)

	r.AddChain(&ChainConfig{
		ID:                 Stellar,
		Name:               "Stellar",
		Family:             FamilyLedgerAccount,
		NativeAsset:        XLM,
		ExplorerURL:        "https://stellar.expert/explorer/testnet",
		CustodialAddress:   custodial[Stellar],
		BaseFee:            decimal.RequireFromString("0.00001"),
		ConfirmationTime:   5 * time.Second,
		ConfirmationBlocks: 1,
	})
	r.AddChain(&ChainConfig{
		ID:                 Ethereum,
		Name:               "Ethereum",
		Family:             FamilyAccountBalance,
		NativeAsset:        ETH,
		ExplorerURL:        "https://sepolia.etherscan.io",
		CustodialAddress:   custodial[Ethereum],
		BaseFee:            decimal.RequireFromString("0.001"),
		ConfirmationTime:   15 * time.Minute,
		ConfirmationBlocks: 12,
	})
	r.AddChain(&ChainConfig{
		ID:                 Base,
		Name:               "Base",
		Family:             FamilyAccountBalance,
		NativeAsset:        ETH,
		ExplorerURL:        "https://goerli.basescan.org",
		CustodialAddress:   custodial[Base],
		BaseFee:            decimal.RequireFromString("0.0001"),
		ConfirmationTime:   2 * time.Minute,
		ConfirmationBlocks: 1,
	})
	r.AddChain(&ChainConfig{
		ID:                 Optimism,
		Name:               "Optimism",
		Family:             FamilyAccountBalance,
		NativeAsset:        ETH,
		ExplorerURL:        "https://goerli-optimism.etherscan.io",
		CustodialAddress:   custodial[Optimism],
		BaseFee:            decimal.RequireFromString("0.0001"),
		ConfirmationTime:   2 * time.Minute,
		ConfirmationBlocks: 1,
	})

	// A native asset is bridgeable on every chain of its routes: the
	// lock leg carries it on its home chain and the release leg pays
	// out the destination chain's native asset.
	r.AddToken(&TokenConfig{
		Symbol:   XLM,
		Name:     "Stellar Lumens",
		Decimals: 7,
		Chains:   []ChainID{Stellar, Ethereum, Base, Optimism},
		Native:   true,
	})
	r.AddToken(&TokenConfig{
		Symbol:   ETH,
		Name:     "Ethereum",
		Decimals: 18,
		Chains:   []ChainID{Ethereum, Base, Optimism, Stellar},
		Native:   true,
	})
	r.AddToken(&TokenConfig{
		Symbol:   USDC,
		Name:     "USD Coin",
		Decimals: 6,
		Chains:   []ChainID{Stellar, Ethereum, Base, Optimism},
		Native:   false,
	})

	// Directional rates. XLM->ETH and ETH->XLM are configured
	// independently; 0.00003 * 33333 != 1, the spread is intentional.
	r.SetRate(XLM, ETH, decimal.RequireFromString("0.00003"))
	r.SetRate(ETH, XLM, decimal.NewFromInt(33333))
	r.SetRate(USDC, USDC, decimal.NewFromInt(1))

	r.SetPairMinutes(Stellar, Ethereum, 5)
	r.SetPairMinutes(Stellar, Base, 3)
	r.SetPairMinutes(Stellar, Optimism, 3)
	r.SetPairMinutes(Ethereum, Stellar, 15)
	r.SetPairMinutes(Base, Stellar, 2)
	r.SetPairMinutes(Optimism, Stellar, 2)

	return r
}
