package jupiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

const sampleQuote = `{
  "inputMint": "So11111111111111111111111111111111111111112",
  "inAmount": "1000000000",
  "outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
  "outAmount": "151234567",
  "otherAmountThreshold": "150478394",
  "swapMode": "ExactIn",
  "slippageBps": 50,
  "platformFee": {"amount": "1200", "feeBps": 10},
  "priceImpactPct": "0.0001",
  "routePlan": [
    {
      "swapInfo": {
        "ammKey": "amm1",
        "label": "Whirlpool",
        "inputMint": "So11111111111111111111111111111111111111112",
        "outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
        "inAmount": "1000000000",
        "outAmount": "151234567",
        "feeAmount": "300000",
        "feeMint": "So11111111111111111111111111111111111111112"
      },
      "percent": 100
    }
  ],
  "contextSlot": 312345678,
  "timeTaken": 0.0125
}`

func TestGetQuote_EncodesParameters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleQuote))
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	resp, err := client.GetQuote(context.Background(), &QuoteParams{
		InputMint:        "in",
		OutputMint:       "out",
		Amount:           "1000",
		SlippageBps:      50,
		SwapMode:         quote.SwapModeExactIn,
		Dexes:            []string{"Raydium", "Orca V2"},
		ExcludeDexes:     []string{"Meteora DLMM"},
		OnlyDirectRoutes: true,
		MaxAccounts:      32,
		DynamicSlippage:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/quote", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "in", q.Get("inputMint"))
	assert.Equal(t, "out", q.Get("outputMint"))
	assert.Equal(t, "1000", q.Get("amount"))
	assert.Equal(t, "50", q.Get("slippageBps"))
	assert.Equal(t, "ExactIn", q.Get("swapMode"))
	assert.Equal(t, "Raydium,Orca V2", q.Get("dexes"))
	assert.Equal(t, "Meteora DLMM", q.Get("excludeDexes"))
	assert.Equal(t, "true", q.Get("onlyDirectRoutes"))
	assert.Equal(t, "32", q.Get("maxAccounts"))
	assert.Equal(t, "true", q.Get("dynamicSlippage"))
	assert.False(t, q.Has("restrictIntermediateTokens"))
	assert.False(t, q.Has("platformFeeBps"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))

	assert.Equal(t, "151234567", resp.OutAmount)
	assert.Equal(t, int64(312345678), resp.ContextSlot)
	require.NotNil(t, resp.PlatformFee)
	assert.Equal(t, 10, resp.PlatformFee.FeeBps)
}

func TestGetQuote_RequiresMintsAndAmount(t *testing.T) {
	client := NewClient(nil)

	_, err := client.GetQuote(context.Background(), &QuoteParams{OutputMint: "out", Amount: "1"})
	assert.Error(t, err)

	_, err = client.GetQuote(context.Background(), &QuoteParams{InputMint: "in", OutputMint: "out"})
	assert.Error(t, err)
}

func TestGetQuote_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{BaseURL: srv.URL})
	_, err := client.GetQuote(context.Background(), &QuoteParams{InputMint: "in", OutputMint: "out", Amount: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "COULD_NOT_FIND_ANY_ROUTE")
}

func TestQuoter_ConvertsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "true", r.URL.Query().Get("restrictIntermediateTokens"))
		_, _ = w.Write([]byte(sampleQuote))
	}))
	defer srv.Close()

	q := NewQuoter(NewClient(&ClientConfig{BaseURL: srv.URL}))
	snap, err := q.Quote(context.Background(), "in", "out", 1_000_000_000, &quote.Constraints{RestrictIntermediateTokens: true})
	require.NoError(t, err)

	assert.True(t, snap.InAmount.Equal(decimal.NewFromInt(1_000_000_000)))
	assert.True(t, snap.OutAmount.Equal(decimal.NewFromInt(151_234_567)))
	assert.True(t, snap.PriceImpactPct.Equal(decimal.RequireFromString("0.0001")))
	assert.InDelta(t, float64(12500*time.Microsecond), float64(snap.TimeTaken), float64(time.Microsecond))
	require.Len(t, snap.Route, 1)
	assert.Equal(t, "Whirlpool", snap.Route[0].Label)
	assert.Equal(t, 100, snap.Route[0].Percent)
	assert.True(t, snap.Route[0].FeeAmount.Equal(decimal.NewFromInt(300000)))
	require.NotNil(t, snap.PlatformFee)
	assert.True(t, snap.PlatformFee.Amount.Equal(decimal.NewFromInt(1200)))
}

func TestQuoter_WrapsFailuresAsTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inAmount": "not-a-number"}`))
	}))
	defer srv.Close()

	q := NewQuoter(NewClient(&ClientConfig{BaseURL: srv.URL}))
	_, err := q.Quote(context.Background(), "in", "out", 1, nil)
	require.Error(t, err)

	var te *quote.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "in", te.Input)
	assert.Equal(t, "out", te.Output)
}
