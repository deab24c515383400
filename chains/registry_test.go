package chains

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

func testRegistry() *Registry {
	return DefaultRegistry(DefaultParams(), CustodialAddresses{})
}

func TestConversionRateDirectional(t *testing.T) {
	r := testRegistry()

	fwd, err := r.ConversionRate(XLM, Stellar, Ethereum)
	assert.NoError(t, err)
	assert.Equal(t, "0.00003", fwd.String())

	back, err := r.ConversionRate(ETH, Ethereum, Stellar)
	assert.NoError(t, err)
	assert.Equal(t, "33333", back.String())

	// Round trip is not identity: 10 XLM -> 0.0003 ETH -> 9.9999 XLM.
	amount := decimal.NewFromInt(10)
	out := amount.Mul(fwd)
	assert.Equal(t, "0.0003", out.String())
	assert.Equal(t, "9.9999", out.Mul(back).String())
	assert.False(t, out.Mul(back).Equal(amount))
}

func TestConversionRateStablecoin(t *testing.T) {
	r := testRegistry()

	rate, err := r.ConversionRate(USDC, Stellar, Ethereum)
	assert.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestConversionRateUnknownToken(t *testing.T) {
	r := testRegistry()

	_, err := r.ConversionRate(Token("DOGE"), Stellar, Ethereum)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestEstimatedMinutes(t *testing.T) {
	r := testRegistry()

	assert.Equal(t, 5, r.EstimatedMinutes(Stellar, Ethereum))
	assert.Equal(t, 15, r.EstimatedMinutes(Ethereum, Stellar))

	// Unconfigured ordered pair falls back to the default.
	assert.Equal(t, defaultPairMinutes, r.EstimatedMinutes(Ethereum, Base))
}

func TestTokenEligibility(t *testing.T) {
	r := testRegistry()

	xlm, ok := r.Token(XLM)
	assert.True(t, ok)
	assert.True(t, xlm.EligibleOn(Stellar))
	assert.True(t, xlm.EligibleOn(Ethereum))
	assert.False(t, xlm.EligibleOn(ChainID("solana")))

	usdc, ok := r.Token(USDC)
	assert.True(t, ok)
	for _, id := range []ChainID{Stellar, Ethereum, Base, Optimism} {
		assert.True(t, usdc.EligibleOn(id))
	}
}

func TestAdapterRegistration(t *testing.T) {
	r := testRegistry()

	_, err := r.Adapter(Stellar)
	assert.ErrorIs(t, err, ErrNoAdapter)

	sim := chainadapter.NewSimulatedAdapter("stellar")
	assert.NoError(t, r.RegisterAdapter(Stellar, sim))

	got, err := r.Adapter(Stellar)
	assert.NoError(t, err)
	assert.Equal(t, sim, got)

	assert.ErrorIs(t, r.RegisterAdapter(ChainID("solana"), sim), ErrUnknownChain)
}

func TestSupportedTokensForChain(t *testing.T) {
	r := testRegistry()

	stellarTokens := r.SupportedTokensFor(Stellar)
	syms := []Token{}
	for _, tc := range stellarTokens {
		syms = append(syms, tc.Symbol)
	}
	assert.Equal(t, []Token{XLM, ETH, USDC}, syms)
}
