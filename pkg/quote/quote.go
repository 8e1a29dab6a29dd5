// Package quote defines the swap quoting contract shared by the refresher and
// the cycle search, independent of any wire format.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quoter prices a swap of amount base units of input into output.
type Quoter interface {
	Quote(ctx context.Context, input, output string, amount uint64, c *Constraints) (*Snapshot, error)
}

// QuoterFunc adapts an ordinary function to the Quoter interface.
type QuoterFunc func(ctx context.Context, input, output string, amount uint64, c *Constraints) (*Snapshot, error)

// Quote calls f.
func (f QuoterFunc) Quote(ctx context.Context, input, output string, amount uint64, c *Constraints) (*Snapshot, error) {
	return f(ctx, input, output, amount, c)
}

// Swap modes.
const (
	SwapModeExactIn  = "ExactIn"
	SwapModeExactOut = "ExactOut"
)

// Constraints are optional routing restrictions for a quote request.
// Zero values mean "use the service default".
type Constraints struct {
	SlippageBps                int      `yaml:"slippage_bps" json:"slippageBps,omitempty"`
	SwapMode                   string   `yaml:"swap_mode" json:"swapMode,omitempty"`
	Dexes                      []string `yaml:"dexes" json:"dexes,omitempty"`
	ExcludeDexes               []string `yaml:"exclude_dexes" json:"excludeDexes,omitempty"`
	RestrictIntermediateTokens bool     `yaml:"restrict_intermediate_tokens" json:"restrictIntermediateTokens,omitempty"`
	OnlyDirectRoutes           bool     `yaml:"only_direct_routes" json:"onlyDirectRoutes,omitempty"`
	AsLegacyTransaction        bool     `yaml:"as_legacy_transaction" json:"asLegacyTransaction,omitempty"`
	PlatformFeeBps             int      `yaml:"platform_fee_bps" json:"platformFeeBps,omitempty"`
	MaxAccounts                int      `yaml:"max_accounts" json:"maxAccounts,omitempty"`
	DynamicSlippage            bool     `yaml:"dynamic_slippage" json:"dynamicSlippage,omitempty"`
}

// Pair identifies a directed swap between two mints.
type Pair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// String renders the pair as "input_output".
func (p Pair) String() string {
	return p.Input + "_" + p.Output
}

// MarshalText lets pairs key JSON objects.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses "input_output". Base58 mints never contain '_'.
func (p *Pair) UnmarshalText(text []byte) error {
	in, out, ok := strings.Cut(string(text), "_")
	if !ok || in == "" || out == "" {
		return fmt.Errorf("invalid pair %q", text)
	}
	p.Input, p.Output = in, out
	return nil
}

// Snapshot is a priced estimate for one swap.
type Snapshot struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             decimal.Decimal `json:"inAmount"`
	OutAmount            decimal.Decimal `json:"outAmount"`
	OtherAmountThreshold decimal.Decimal `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       decimal.Decimal `json:"priceImpactPct"`
	PlatformFee          *PlatformFee    `json:"platformFee,omitempty"`
	Route                []RouteStep     `json:"route"`
	ContextSlot          int64           `json:"contextSlot,omitempty"`
	TimeTaken            time.Duration   `json:"timeTaken,omitempty"`
}

// RouteStep is one AMM hop inside a quoted route.
type RouteStep struct {
	AmmKey     string          `json:"ammKey"`
	Label      string          `json:"label"`
	InputMint  string          `json:"inputMint"`
	OutputMint string          `json:"outputMint"`
	InAmount   decimal.Decimal `json:"inAmount"`
	OutAmount  decimal.Decimal `json:"outAmount"`
	FeeAmount  decimal.Decimal `json:"feeAmount"`
	FeeMint    string          `json:"feeMint"`
	Percent    int             `json:"percent"`
}

// PlatformFee is the integrator fee charged on a quote.
type PlatformFee struct {
	Amount decimal.Decimal `json:"amount"`
	FeeBps int             `json:"feeBps"`
}

// Pair returns the directed pair this snapshot prices.
func (s *Snapshot) Pair() Pair {
	return Pair{Input: s.InputMint, Output: s.OutputMint}
}

// Rate returns output base units per input base unit, or zero when the
// input amount is zero.
func (s *Snapshot) Rate() decimal.Decimal {
	if s.InAmount.IsZero() {
		return decimal.Zero
	}
	return s.OutAmount.Div(s.InAmount)
}

// Labels returns the AMM labels of the route in order.
func (s *Snapshot) Labels() []string {
	labels := make([]string, 0, len(s.Route))
	for _, step := range s.Route {
		labels = append(labels, step.Label)
	}
	return labels
}

// ErrNoQuote is returned when a quoter reports success without a snapshot.
var ErrNoQuote = errors.New("quoter returned no quote")

// TransportError reports a failed quote request: network, HTTP status,
// decoding or a remote rejection. It is always local to one pair.
type TransportError struct {
	Input  string
	Output string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("quote %s -> %s: %v", e.Input, e.Output, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
