package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solana-cycles/pkg/attribute"
	"github.com/jonasrmichel/solana-cycles/pkg/config"
	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/jupiter"
	"github.com/jonasrmichel/solana-cycles/pkg/logging"
	"github.com/jonasrmichel/solana-cycles/pkg/mints"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
	"github.com/jonasrmichel/solana-cycles/pkg/search"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *mints.Registry
	topo     *graph.Topology
	quoter   quote.Quoter
	cache    *attribute.Cache
}

// newApp loads and validates configuration and builds the graph, the quote
// client and an empty cache.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Logging.Pretty, _ = cmd.Flags().GetBool("pretty")
	}

	return buildApp(cfg)
}

func buildApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging)

	registry, topo, err := cfg.BuildGraph()
	if err != nil {
		return nil, err
	}

	client := jupiter.NewClient(cfg.ToClientConfig())

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		topo:     topo,
		quoter:   jupiter.NewQuoter(client),
		cache:    attribute.NewCache(topo.EdgeCount()),
	}, nil
}

func (a *app) newRefresher() (*attribute.Refresher, error) {
	return attribute.NewRefresher(a.topo, a.cache, a.quoter, a.cfg.ToRefresherConfig(), a.logger)
}

func (a *app) newEngine() (*search.Engine, error) {
	return search.NewEngine(a.topo, a.quoter, a.cfg.ToSearchConfig(a.cache), a.logger)
}

// startNode resolves the configured start symbol.
func (a *app) startNode(symbol string) (int, error) {
	if symbol == "" {
		symbol = a.cfg.Search.StartSymbol
	}
	id, err := a.registry.SymbolID(symbol)
	if err != nil {
		return graph.NoNode, fmt.Errorf("start token: %w", err)
	}
	return id, nil
}

// printBanner prints the startup summary.
func (a *app) printBanner(mode string) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║            Solana Cycle Finder - Jupiter quotes           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Mode:      %s\n", mode)
	fmt.Printf("Tokens:    %d\n", a.registry.NodeCount())
	fmt.Printf("Edges:     %d (%d routes)\n", a.topo.EdgeCount(), len(a.cfg.Routes))
	fmt.Printf("Start:     %s, depth <= %d, amount %d\n", a.cfg.Search.StartSymbol, a.cfg.Search.MaxDepth, a.cfg.Search.Amount)
	fmt.Println()
}
