// Package jupiter provides a client for the Jupiter aggregator API on Solana.
package jupiter

// QuoteParams contains the parameters for requesting a quote from Jupiter.
// See https://dev.jup.ag/docs/swap-api/get-quote.
type QuoteParams struct {
	InputMint  string // Input token mint address
	OutputMint string // Output token mint address
	Amount     string // Amount in smallest units (lamports/base units)

	SlippageBps int    // Slippage tolerance in basis points
	SwapMode    string // "ExactIn" or "ExactOut"

	Dexes                      []string // Only route through these DEX labels
	ExcludeDexes               []string // Never route through these DEX labels
	RestrictIntermediateTokens bool
	OnlyDirectRoutes           bool
	AsLegacyTransaction        bool
	PlatformFeeBps             int
	MaxAccounts                int // Rough estimate of accounts the route may use (service default 64)
	DynamicSlippage            bool
}

// QuoteResponse contains the response from Jupiter's quote API.
type QuoteResponse struct {
	InputMint            string       `json:"inputMint"`
	InAmount             string       `json:"inAmount"`
	OutputMint           string       `json:"outputMint"`
	OutAmount            string       `json:"outAmount"`
	OtherAmountThreshold string       `json:"otherAmountThreshold"`
	SwapMode             string       `json:"swapMode"`
	SlippageBps          int          `json:"slippageBps"`
	PlatformFee          *PlatformFee `json:"platformFee,omitempty"`
	PriceImpactPct       string       `json:"priceImpactPct"`
	RoutePlan            []RoutePlan  `json:"routePlan"`
	ContextSlot          int64        `json:"contextSlot,omitempty"`
	TimeTaken            float64      `json:"timeTaken,omitempty"` // seconds
}

// PlatformFee is the integrator fee attached to a quote.
type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int    `json:"feeBps"`
}

// RoutePlan describes a single step in the swap route.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo contains details about a swap step.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// errorResponse is the body Jupiter returns on rejected quotes.
type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}
