// Package solana provides a read-only client for checking token mints
// against the Solana blockchain.
package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/jonasrmichel/solana-cycles/pkg/mints"
)

// Client wraps the Solana RPC client.
type Client struct {
	rpc        *rpc.Client
	rpcURL     string
	commitment rpc.CommitmentType
}

// ClientConfig contains configuration for the Solana client.
type ClientConfig struct {
	RPCURL     string // Solana RPC endpoint
	Commitment string // processed, confirmed or finalized
}

// NewClient creates a new Solana client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	rpcURL := config.RPCURL
	if rpcURL == "" {
		rpcURL = rpc.MainNetBeta_RPC
	}

	commitment := rpc.CommitmentType(config.Commitment)
	if commitment == "" {
		commitment = rpc.CommitmentFinalized
	}

	return &Client{
		rpc:        rpc.New(rpcURL),
		rpcURL:     rpcURL,
		commitment: commitment,
	}
}

// MintInfo is the on-chain state of an SPL token mint.
type MintInfo struct {
	Mint     string `json:"mint"`
	Decimals uint8  `json:"decimals"`
	Supply   string `json:"supply"` // Base units
}

// GetMintInfo returns the decimals and supply of a mint.
func (c *Client) GetMintInfo(ctx context.Context, mintAddress string) (*MintInfo, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}

	out, err := c.rpc.GetTokenSupply(ctx, mint, c.commitment)
	if err != nil {
		return nil, fmt.Errorf("failed to get token supply of %s: %w", mintAddress, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("no supply returned for %s", mintAddress)
	}

	return &MintInfo{
		Mint:     mintAddress,
		Decimals: out.Value.Decimals,
		Supply:   out.Value.Amount,
	}, nil
}

// Check is the verification outcome for one configured token.
type Check struct {
	Token    mints.Token `json:"token"`
	OnChain  *MintInfo   `json:"on_chain,omitempty"`
	Err      error       `json:"-"`
	Mismatch bool        `json:"mismatch"` // Configured decimals differ from the chain
}

// OK reports whether the token exists on chain with the configured decimals.
func (c Check) OK() bool {
	return c.Err == nil && !c.Mismatch
}

// VerifyTokens fetches every token's mint and compares decimals. Lookups
// run sequentially; one failing token does not stop the others.
func (c *Client) VerifyTokens(ctx context.Context, tokens []mints.Token) []Check {
	checks := make([]Check, 0, len(tokens))
	for _, tok := range tokens {
		check := Check{Token: tok}
		info, err := c.GetMintInfo(ctx, tok.Mint)
		if err != nil {
			check.Err = err
		} else {
			check.OnChain = info
			check.Mismatch = int(info.Decimals) != tok.Decimals
		}
		checks = append(checks, check)
	}
	return checks
}

// RPCURL returns the RPC endpoint in use.
func (c *Client) RPCURL() string {
	return c.rpcURL
}
