package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solana-cycles/pkg/solana"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check configured token mints and decimals against the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client := solana.NewClient(a.cfg.ToSolanaConfig())
		fmt.Printf("Checking %d tokens via %s\n\n", len(a.cfg.Tokens), client.RPCURL())

		failed := 0
		for _, check := range client.VerifyTokens(ctx, a.registry.Tokens()) {
			switch {
			case check.Err != nil:
				failed++
				fmt.Printf("  ✗ %-10s %s: %v\n", check.Token.Symbol, check.Token.Mint, check.Err)
			case check.Mismatch:
				failed++
				fmt.Printf("  ✗ %-10s %s: configured %d decimals, chain has %d\n",
					check.Token.Symbol, check.Token.Mint, check.Token.Decimals, check.OnChain.Decimals)
			default:
				fmt.Printf("  ✓ %-10s %s (%d decimals)\n", check.Token.Symbol, check.Token.Mint, check.OnChain.Decimals)
			}
		}
		fmt.Println()

		if failed > 0 {
			return fmt.Errorf("%d of %d tokens failed verification", failed, len(a.cfg.Tokens))
		}
		fmt.Println("All tokens verified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Duration("timeout", 30*time.Second, "Overall RPC timeout")
}
