package jupiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

// Quoter exposes the client through the quote.Quoter contract.
type Quoter struct {
	client *Client
}

var _ quote.Quoter = (*Quoter)(nil)

// NewQuoter wraps client.
func NewQuoter(client *Client) *Quoter {
	return &Quoter{client: client}
}

// Quote requests a quote and converts it into a snapshot. Every failure is
// returned as a *quote.TransportError.
func (q *Quoter) Quote(ctx context.Context, input, output string, amount uint64, c *quote.Constraints) (*quote.Snapshot, error) {
	params := &QuoteParams{
		InputMint:  input,
		OutputMint: output,
		Amount:     strconv.FormatUint(amount, 10),
	}
	if c != nil {
		params.SlippageBps = c.SlippageBps
		params.SwapMode = c.SwapMode
		params.Dexes = c.Dexes
		params.ExcludeDexes = c.ExcludeDexes
		params.RestrictIntermediateTokens = c.RestrictIntermediateTokens
		params.OnlyDirectRoutes = c.OnlyDirectRoutes
		params.AsLegacyTransaction = c.AsLegacyTransaction
		params.PlatformFeeBps = c.PlatformFeeBps
		params.MaxAccounts = c.MaxAccounts
		params.DynamicSlippage = c.DynamicSlippage
	}

	resp, err := q.client.GetQuote(ctx, params)
	if err != nil {
		return nil, &quote.TransportError{Input: input, Output: output, Err: err}
	}

	snap, err := resp.Snapshot()
	if err != nil {
		return nil, &quote.TransportError{Input: input, Output: output, Err: err}
	}
	return snap, nil
}

// Snapshot converts the wire response into a quote.Snapshot.
func (r *QuoteResponse) Snapshot() (*quote.Snapshot, error) {
	inAmount, err := parseAmount("inAmount", r.InAmount)
	if err != nil {
		return nil, err
	}
	outAmount, err := parseAmount("outAmount", r.OutAmount)
	if err != nil {
		return nil, err
	}
	threshold, err := parseAmount("otherAmountThreshold", r.OtherAmountThreshold)
	if err != nil {
		return nil, err
	}
	impact, err := parseAmount("priceImpactPct", r.PriceImpactPct)
	if err != nil {
		return nil, err
	}

	snap := &quote.Snapshot{
		InputMint:            r.InputMint,
		OutputMint:           r.OutputMint,
		InAmount:             inAmount,
		OutAmount:            outAmount,
		OtherAmountThreshold: threshold,
		SwapMode:             r.SwapMode,
		SlippageBps:          r.SlippageBps,
		PriceImpactPct:       impact,
		Route:                make([]quote.RouteStep, 0, len(r.RoutePlan)),
		ContextSlot:          r.ContextSlot,
		TimeTaken:            time.Duration(r.TimeTaken * float64(time.Second)),
	}

	if r.PlatformFee != nil {
		amount, err := parseAmount("platformFee.amount", r.PlatformFee.Amount)
		if err != nil {
			return nil, err
		}
		snap.PlatformFee = &quote.PlatformFee{Amount: amount, FeeBps: r.PlatformFee.FeeBps}
	}

	for i, plan := range r.RoutePlan {
		info := plan.SwapInfo
		stepIn, err := parseAmount(fmt.Sprintf("routePlan[%d].inAmount", i), info.InAmount)
		if err != nil {
			return nil, err
		}
		stepOut, err := parseAmount(fmt.Sprintf("routePlan[%d].outAmount", i), info.OutAmount)
		if err != nil {
			return nil, err
		}
		fee, err := parseAmount(fmt.Sprintf("routePlan[%d].feeAmount", i), info.FeeAmount)
		if err != nil {
			return nil, err
		}
		snap.Route = append(snap.Route, quote.RouteStep{
			AmmKey:     info.AmmKey,
			Label:      info.Label,
			InputMint:  info.InputMint,
			OutputMint: info.OutputMint,
			InAmount:   stepIn,
			OutAmount:  stepOut,
			FeeAmount:  fee,
			FeeMint:    info.FeeMint,
			Percent:    plan.Percent,
		})
	}

	return snap, nil
}

// parseAmount parses a decimal string field; empty means zero.
func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s %q: %w", field, s, err)
	}
	return d, nil
}
