package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Jupiter Lite API endpoint.
	DefaultBaseURL = "https://lite-api.jup.ag/swap/v1"

	// UltraBaseURL is the Jupiter Ultra API endpoint (requires API key).
	UltraBaseURL = "https://api.jup.ag/swap/v1"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Client is a Jupiter API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string // Optional: for Ultra API
}

// ClientConfig contains configuration for the Jupiter client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string // Optional: for Ultra API
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Jupiter API client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     config.APIKey,
	}
}

// GetQuote fetches a swap quote from Jupiter.
func (c *Client) GetQuote(ctx context.Context, params *QuoteParams) (*QuoteResponse, error) {
	if params.InputMint == "" || params.OutputMint == "" {
		return nil, fmt.Errorf("inputMint and outputMint are required")
	}
	if params.Amount == "" {
		return nil, fmt.Errorf("amount is required")
	}

	requestURL := fmt.Sprintf("%s/quote?%s", c.baseURL, params.query().Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("Jupiter API error (status %d, %s): %s", resp.StatusCode, apiErr.ErrorCode, apiErr.Error)
		}
		return nil, fmt.Errorf("Jupiter API error (status %d): %s", resp.StatusCode, string(body))
	}

	var quoteResp QuoteResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &quoteResp, nil
}

// query encodes the parameters the way the quote endpoint expects them.
// Optional flags are only sent when set.
func (p *QuoteParams) query() url.Values {
	query := url.Values{}
	query.Set("inputMint", p.InputMint)
	query.Set("outputMint", p.OutputMint)
	query.Set("amount", p.Amount)

	if p.SlippageBps > 0 {
		query.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	}
	if p.SwapMode != "" {
		query.Set("swapMode", p.SwapMode)
	}
	if len(p.Dexes) > 0 {
		query.Set("dexes", strings.Join(p.Dexes, ","))
	}
	if len(p.ExcludeDexes) > 0 {
		query.Set("excludeDexes", strings.Join(p.ExcludeDexes, ","))
	}
	if p.RestrictIntermediateTokens {
		query.Set("restrictIntermediateTokens", "true")
	}
	if p.OnlyDirectRoutes {
		query.Set("onlyDirectRoutes", "true")
	}
	if p.AsLegacyTransaction {
		query.Set("asLegacyTransaction", "true")
	}
	if p.PlatformFeeBps > 0 {
		query.Set("platformFeeBps", strconv.Itoa(p.PlatformFeeBps))
	}
	if p.MaxAccounts > 0 {
		query.Set("maxAccounts", strconv.Itoa(p.MaxAccounts))
	}
	if p.DynamicSlippage {
		query.Set("dynamicSlippage", "true")
	}

	return query
}
