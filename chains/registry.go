package chains

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

var (
	ErrUnknownChain = errors.New("unknown chain")
	ErrUnknownToken = errors.New("unknown token")
	ErrNoAdapter    = errors.New("no adapter registered for chain")
)

// defaultPairMinutes is used when an ordered chain pair has no
// explicit entry in the estimated-time table.
const defaultPairMinutes = 10

type assetPair struct {
	from Token
	to   Token
}

type chainPair struct {
	from ChainID
	to   ChainID
}

// Registry resolves chain/token identifiers to their configuration and
// adapter once at startup. Call sites hold a *Registry instead of
// switching on identifier strings.
type Registry struct {
	params   Params
	chains   map[ChainID]*ChainConfig
	tokens   map[Token]*TokenConfig
	adapters map[ChainID]chainadapter.ChainAdapter

	// rates holds directional conversion multipliers per asset pair.
	// A pair and its inverse are configured independently to model
	// real spread; they are not reciprocal in general.
	rates map[assetPair]decimal.Decimal

	pairMinutes map[chainPair]int
}

func NewRegistry(params Params) *Registry {
	return &Registry{
		params:      params,
		chains:      map[ChainID]*ChainConfig{},
		tokens:      map[Token]*TokenConfig{},
		adapters:    map[ChainID]chainadapter.ChainAdapter{},
		rates:       map[assetPair]decimal.Decimal{},
		pairMinutes: map[chainPair]int{},
	}
}

func (r *Registry) AddChain(cfg *ChainConfig) *Registry {
	r.chains[cfg.ID] = cfg
	return r
}

func (r *Registry) AddToken(cfg *TokenConfig) *Registry {
	r.tokens[cfg.Symbol] = cfg
	return r
}

func (r *Registry) SetRate(from, to Token, rate decimal.Decimal) *Registry {
	r.rates[assetPair{from, to}] = rate
	return r
}

func (r *Registry) SetPairMinutes(from, to ChainID, minutes int) *Registry {
	r.pairMinutes[chainPair{from, to}] = minutes
	return r
}

// RegisterAdapter binds a chain to its ChainAdapter implementation.
func (r *Registry) RegisterAdapter(id ChainID, adapter chainadapter.ChainAdapter) error {
	if _, ok := r.chains[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	r.adapters[id] = adapter
	return nil
}

func (r *Registry) Params() Params {
	return r.params
}

func (r *Registry) Chain(id ChainID) (*ChainConfig, bool) {
	cfg, ok := r.chains[id]
	return cfg, ok
}

func (r *Registry) Token(sym Token) (*TokenConfig, bool) {
	cfg, ok := r.tokens[sym]
	return cfg, ok
}

func (r *Registry) Adapter(id ChainID) (chainadapter.ChainAdapter, error) {
	adapter, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, id)
	}
	return adapter, nil
}

// SupportedChains returns the configured chains in stable id order.
func (r *Registry) SupportedChains() []*ChainConfig {
	order := []ChainID{Stellar, Ethereum, Base, Optimism}
	out := make([]*ChainConfig, 0, len(r.chains))
	for _, id := range order {
		if cfg, ok := r.chains[id]; ok {
			out = append(out, cfg)
		}
	}
	for id, cfg := range r.chains {
		known := false
		for _, o := range order {
			if id == o {
				known = true
				break
			}
		}
		if !known {
			out = append(out, cfg)
		}
	}
	return out
}

// SupportedTokensFor returns the tokens eligible on the given chain.
func (r *Registry) SupportedTokensFor(chain ChainID) []*TokenConfig {
	order := []Token{XLM, ETH, USDC}
	out := make([]*TokenConfig, 0, len(r.tokens))
	for _, sym := range order {
		if tc, ok := r.tokens[sym]; ok && tc.EligibleOn(chain) {
			out = append(out, tc)
		}
	}
	return out
}

// ConversionRate returns the directional multiplier applied to a lock
// amount of the token when moving fromChain -> toChain. A native asset
// converts into the destination chain's native asset; a non-native
// token keeps its own symbol and converts 1:1 unless configured
// otherwise.
func (r *Registry) ConversionRate(token Token, fromChain, toChain ChainID) (decimal.Decimal, error) {
	tc, ok := r.tokens[token]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	dst, ok := r.chains[toChain]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownChain, toChain)
	}

	target := token
	if tc.Native {
		target = dst.NativeAsset
	}
	if rate, ok := r.rates[assetPair{token, target}]; ok {
		return rate, nil
	}
	return decimal.NewFromInt(1), nil
}

// EstimatedMinutes returns the configured settlement estimate for the
// ordered chain pair, falling back to a stock default.
func (r *Registry) EstimatedMinutes(fromChain, toChain ChainID) int {
	if m, ok := r.pairMinutes[chainPair{fromChain, toChain}]; ok {
		return m
	}
	return defaultPairMinutes
}
