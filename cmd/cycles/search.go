package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solana-cycles/pkg/reporter"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one cycle search and print the walks found",
	Long: `Runs a single breadth-first search from the start token. With --warm, one
refresh pass fills the quote cache first so the search can reuse it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("depth") {
			a.cfg.Search.MaxDepth, _ = cmd.Flags().GetInt("depth")
		}
		if cmd.Flags().Changed("amount") {
			a.cfg.Search.Amount, _ = cmd.Flags().GetUint64("amount")
		}
		formatName, _ := cmd.Flags().GetString("format")
		if formatName == "" {
			formatName = a.cfg.Search.Output
		}
		format, err := reporter.ParseFormat(formatName)
		if err != nil {
			return err
		}
		startSymbol, _ := cmd.Flags().GetString("start")
		start, err := a.startNode(startSymbol)
		if err != nil {
			return err
		}
		warm, _ := cmd.Flags().GetBool("warm")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if format == reporter.FormatText {
			a.printBanner("single search")
		}

		if warm {
			refresher, err := a.newRefresher()
			if err != nil {
				return err
			}
			pass := refresher.RunPass(ctx)
			a.logger.Info().
				Int("succeeded", pass.Succeeded).
				Int("failed", pass.Failed).
				Dur("took", pass.Duration).
				Msg("cache warmed")
		} else {
			a.cfg.Search.UseCache = false
		}

		engine, err := a.newEngine()
		if err != nil {
			return err
		}

		res, err := engine.Search(ctx, start, a.cfg.Search.Amount, a.cfg.Search.MaxDepth)
		if res != nil {
			rep := reporter.NewReporter(os.Stdout, format, verbose, a.registry, a.topo)
			rep.ReportResult(res)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("start", "", "Start token symbol (default search.start_symbol)")
	searchCmd.Flags().Int("depth", 0, "Maximum walk length in edges (default search.max_depth)")
	searchCmd.Flags().Uint64("amount", 0, "Quoted input amount in base units (default search.amount)")
	searchCmd.Flags().StringP("format", "f", "", "Output format: text, json, csv")
	searchCmd.Flags().Bool("warm", true, "Run one refresh pass before searching and reuse its quotes")
	searchCmd.Flags().BoolP("verbose", "v", false, "Include routes and search statistics")
}
