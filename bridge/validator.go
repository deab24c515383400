package bridge

import (
	"fmt"
	"regexp"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/stellargate-io/bridge-go/chains"
)

// ledgerAccountAddrPattern matches Stellar-style public account ids:
// 56 upper-case base32 characters starting with G.
var ledgerAccountAddrPattern = regexp.MustCompile(`^G[A-Z0-9]{55}$`)

// Validator enforces the route rules. Pure; no side effects, nothing
// persisted on failure.
type Validator struct {
	reg *chains.Registry
}

func NewValidator(reg *chains.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate checks the request in order, short-circuiting on the first
// failure. Every failure wraps ErrInvalidRoute.
func (v *Validator) Validate(req *BridgeRequest) error {
	fromCfg, ok := v.reg.Chain(req.FromChain)
	if !ok {
		return fmt.Errorf("%w: unsupported source chain %q", ErrInvalidRoute, req.FromChain)
	}
	toCfg, ok := v.reg.Chain(req.ToChain)
	if !ok {
		return fmt.Errorf("%w: unsupported destination chain %q", ErrInvalidRoute, req.ToChain)
	}
	if req.FromChain == req.ToChain {
		return fmt.Errorf("%w: source and destination chains must differ", ErrInvalidRoute)
	}

	tokenCfg, ok := v.reg.Token(req.Token)
	if !ok {
		return fmt.Errorf("%w: unsupported token %q", ErrInvalidRoute, req.Token)
	}
	if !tokenCfg.EligibleOn(req.FromChain) {
		return fmt.Errorf("%w: token %s not available on %s", ErrInvalidRoute, req.Token, req.FromChain)
	}
	if !tokenCfg.EligibleOn(req.ToChain) {
		return fmt.Errorf("%w: token %s not available on %s", ErrInvalidRoute, req.Token, req.ToChain)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a decimal number", ErrInvalidRoute, req.Amount)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRoute)
	}
	params := v.reg.Params()
	// Bounds are inclusive.
	if amount.LessThan(params.MinAmount) {
		return fmt.Errorf("%w: amount %s below minimum %s", ErrInvalidRoute, amount, params.MinAmount)
	}
	if amount.GreaterThan(params.MaxAmount) {
		return fmt.Errorf("%w: amount %s above maximum %s", ErrInvalidRoute, amount, params.MaxAmount)
	}

	if !addressMatchesFamily(req.FromAddress, fromCfg.Family) {
		return fmt.Errorf("%w: source address is not a valid %s address", ErrInvalidRoute, fromCfg.Family)
	}
	if !addressMatchesFamily(req.ToAddress, toCfg.Family) {
		return fmt.Errorf("%w: destination address is not a valid %s address", ErrInvalidRoute, toCfg.Family)
	}

	return nil
}

func addressMatchesFamily(addr string, family chains.Family) bool {
	switch family {
	case chains.FamilyLedgerAccount:
		return ledgerAccountAddrPattern.MatchString(addr)
	case chains.FamilyAccountBalance:
		return ethcommon.IsHexAddress(addr) && len(addr) == 42 && addr[0:2] == "0x"
	}
	return false
}
