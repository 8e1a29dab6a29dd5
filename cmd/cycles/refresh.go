package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonasrmichel/solana-cycles/pkg/admin"
	"github.com/jonasrmichel/solana-cycles/pkg/attribute"
	"github.com/jonasrmichel/solana-cycles/pkg/feed"
	"github.com/jonasrmichel/solana-cycles/pkg/metrics"
	"github.com/jonasrmichel/solana-cycles/pkg/notifier"
	"github.com/jonasrmichel/solana-cycles/pkg/reporter"
	"github.com/jonasrmichel/solana-cycles/pkg/search"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Keep every edge quote fresh and search periodically",
	Long: `Runs the staleness-driven refresher until interrupted. Every search.every a
cycle search runs against the cache. Pass summaries and search results are
published on the websocket feed, and the admin server exposes health,
readiness, metrics and status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		formatName, _ := cmd.Flags().GetString("format")
		if formatName == "" {
			formatName = a.cfg.Search.Output
		}
		format, err := reporter.ParseFormat(formatName)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		noSearch, _ := cmd.Flags().GetBool("no-search")

		start, err := a.startNode("")
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if format == reporter.FormatText {
			a.printBanner("continuous refresh")
		}
		return a.runRefresh(ctx, start, format, verbose, !noSearch)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().StringP("format", "f", "", "Output format for search results: text, json, csv")
	refreshCmd.Flags().BoolP("verbose", "v", false, "Include routes and search statistics")
	refreshCmd.Flags().Bool("no-search", false, "Only refresh quotes, never search")
}

// status is served on /status.
type status struct {
	Edges      int                      `json:"edges"`
	Refresher  attribute.RefresherStats `json:"refresher"`
	LastSearch *search.Result           `json:"last_search,omitempty"`
	Feed       int                      `json:"feed_clients"`
}

func (a *app) runRefresh(ctx context.Context, start int, format reporter.OutputFormat, verbose, searching bool) error {
	refresher, err := a.newRefresher()
	if err != nil {
		return err
	}
	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	hub := feed.NewHub(a.cfg.ToHubConfig(), a.logger)
	defer hub.Close()
	rep := reporter.NewReporter(os.Stdout, format, verbose, a.registry, a.topo)

	slack := notifier.NewSlackNotifier(&a.cfg.Slack)
	if slack.IsEnabled() {
		if err := slack.SendTestMessage(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("slack test message failed")
		}
	}

	var mu sync.Mutex
	var lastSearch *search.Result
	statusFn := func() any {
		mu.Lock()
		defer mu.Unlock()
		return status{
			Edges:      a.topo.EdgeCount(),
			Refresher:  refresher.Stats(),
			LastSearch: lastSearch,
			Feed:       hub.ClientCount(),
		}
	}
	srv := admin.NewServer(metrics.NewRegistry(), hub, statusFn, a.logger)

	var readyOnce sync.Once
	refresher.SetPassCallback(func(pass attribute.PassResult) {
		if pass.Succeeded > 0 {
			readyOnce.Do(func() {
				srv.SetReady(true)
				a.logger.Info().Dur("took", pass.Duration).Msg("first quotes cached, ready")
			})
		}
		if pass.Candidates > 0 {
			hub.Broadcast(feed.Event{Type: feed.EventRefreshPass, Data: pass})
		}
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return refresher.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		g.Go(func() error {
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
		})
	}

	if searching {
		g.Go(func() error {
			ticker := time.NewTicker(a.cfg.Search.Every)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}

				res, err := engine.Search(ctx, start, a.cfg.Search.Amount, a.cfg.Search.MaxDepth)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					rep.RecordError()
					a.logger.Error().Err(err).Msg("search failed")
					continue
				}

				mu.Lock()
				lastSearch = res
				mu.Unlock()

				rep.ReportResult(res)
				hub.Broadcast(feed.Event{Type: feed.EventSearchResult, Data: res})
				a.notify(ctx, slack, rep, res)
			}
		})
	}

	err = g.Wait()
	if verbose && format == reporter.FormatText {
		rep.PrintStats()
	}
	if errors.Is(err, context.Canceled) {
		a.logger.Info().Msg("shut down")
		return nil
	}
	return err
}

// notify posts a search summary to Slack when it is enabled.
func (a *app) notify(ctx context.Context, slack *notifier.SlackNotifier, rep *reporter.Reporter, res *search.Result) {
	if !slack.IsEnabled() || len(res.Opportunities) == 0 {
		return
	}

	summary := &notifier.SearchSummary{
		RunID: res.RunID,
		Start: a.cfg.Search.StartSymbol,
		Took:  res.Stats.Duration,
	}
	for _, opp := range res.Opportunities {
		summary.Walks = append(summary.Walks, rep.Describe(opp))
	}

	if _, err := slack.NotifySearchResult(ctx, summary); err != nil {
		a.logger.Warn().Err(err).Msg("slack notification failed")
	}
}
