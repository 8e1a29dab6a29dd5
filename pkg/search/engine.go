// Package search finds closed walks through the swap topology that start and
// end at one node. Each hop is only taken if it can be priced.
//
// The search is breadth first, so results come out ordered by length and,
// within a length, by adjacency order (newest edge first). Results are not
// ranked or filtered by profitability.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonasrmichel/solana-cycles/pkg/attribute"
	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/metrics"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

// ErrInvalidDepth is returned for a maximum depth below 1.
var ErrInvalidDepth = errors.New("max depth must be at least 1")

// Config holds configuration for the engine.
type Config struct {
	Constraints *quote.Constraints // Optional routing constraints for direct quotes

	// Cache, when set, is consulted before the quoter. An entry is used if
	// it was quoted for the same amount no longer than CacheMaxAge ago.
	Cache       *attribute.Cache
	CacheMaxAge time.Duration
}

// Opportunity is a closed walk from the start node back to itself.
type Opportunity struct {
	Path         []int                          `json:"path"`
	Quotes       map[quote.Pair]*quote.Snapshot `json:"quotes"`
	FirstQuoteAt time.Time                      `json:"first_quote_at"`
}

// Age returns how long ago the walk's first hop was priced.
func (o *Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.FirstQuoteAt)
}

// Stats counts the work done by one search.
type Stats struct {
	StartHasEdges bool          `json:"start_has_edges"`
	Expanded      int           `json:"expanded"`       // States dequeued
	Quotes        int           `json:"quotes"`         // Direct quote requests
	QuoteFailures int           `json:"quote_failures"` // Direct requests that failed
	CacheHits     int           `json:"cache_hits"`
	Pruned        int           `json:"pruned"`        // Priced children dropped at the depth bound
	NodesReached  int           `json:"nodes_reached"` // Distinct non-start nodes in any enqueued state
	Duration      time.Duration `json:"duration"`
}

// Result is the outcome of one search.
type Result struct {
	RunID         string         `json:"run_id"`
	Start         int            `json:"start"`
	Amount        uint64         `json:"amount"`
	MaxDepth      int            `json:"max_depth"`
	StartedAt     time.Time      `json:"started_at"`
	Opportunities []*Opportunity `json:"opportunities"`
	Stats         Stats          `json:"stats"`
}

// Engine runs cycle searches over a fixed topology.
type Engine struct {
	topo   *graph.Topology
	quoter quote.Quoter
	config *Config
	clock  attribute.Clock
	logger zerolog.Logger
}

// NewEngine creates a search engine.
func NewEngine(topo *graph.Topology, quoter quote.Quoter, config *Config, logger zerolog.Logger) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}
	if config.Cache != nil && config.Cache.Len() != topo.EdgeCount() {
		return nil, fmt.Errorf("cache has %d cells for %d edges", config.Cache.Len(), topo.EdgeCount())
	}

	return &Engine{
		topo:   topo,
		quoter: quoter,
		config: config,
		clock:  attribute.SystemClock{},
		logger: logger.With().Str("component", "search").Logger(),
	}, nil
}

// SetClock replaces the clock used for cache freshness and quote times.
func (e *Engine) SetClock(clock attribute.Clock) {
	e.clock = clock
}

// Search enumerates every closed walk from start of at most maxDepth edges
// whose hops all price successfully for amount. Apart from start, no node
// appears twice in a walk.
//
// A failed quote drops only the branch it would have opened. If ctx ends
// the results found so far are returned along with ctx's error.
func (e *Engine) Search(ctx context.Context, start int, amount uint64, maxDepth int) (*Result, error) {
	if start <= graph.NoNode || start > e.topo.NodeCount() {
		return nil, fmt.Errorf("%w: start %d not in [1, %d]", graph.ErrNodeOutOfRange, start, e.topo.NodeCount())
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, maxDepth)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started := time.Now()
	result := &Result{
		RunID:         uuid.NewString(),
		Start:         start,
		Amount:        amount,
		MaxDepth:      maxDepth,
		StartedAt:     e.clock.Now(),
		Opportunities: make([]*Opportunity, 0),
	}
	logger := e.logger.With().Str("run_id", result.RunID).Int("start", start).Logger()

	defer func() {
		result.Stats.Duration = time.Since(started)
		metrics.SearchesTotal.Inc()
		metrics.SearchSeconds.Observe(result.Stats.Duration.Seconds())
		metrics.OpportunitiesTotal.Add(float64(len(result.Opportunities)))
	}()

	if e.topo.Head(start) == graph.NoEdge {
		logger.Warn().Msg("start node has no outgoing edges")
		return result, nil
	}
	result.Stats.StartHasEdges = true

	reached := make([]bool, e.topo.NodeCount()+1)
	var queue []*State
	enqueue := func(s *State, to int) {
		if to != start && !reached[to] {
			reached[to] = true
			result.Stats.NodesReached++
		}
		queue = append(queue, s)
	}

	root := newRootState(e.topo.NodeCount(), start, maxDepth)
	for edge := e.topo.Head(start); edge != graph.NoEdge; edge = e.topo.Next(edge) {
		to := e.topo.To(edge)
		if root.Visited[to] {
			continue
		}

		snap, ok := e.quoteEdge(ctx, edge, amount, &result.Stats, logger)
		if !ok {
			continue
		}

		child := root.extend(edge, to, e.pair(edge), snap, e.clock.Now())
		if child.Len() < maxDepth {
			enqueue(child, to)
		} else {
			result.Stats.Pruned++
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Int("found", len(result.Opportunities)).Msg("search interrupted")
			return result, err
		}

		s := queue[0]
		queue[0] = nil
		queue = queue[1:]
		result.Stats.Expanded++

		v := e.topo.To(s.Last)
		if v == start {
			result.Opportunities = append(result.Opportunities, &Opportunity{
				Path:         s.Path,
				Quotes:       s.Quotes,
				FirstQuoteAt: s.FirstQuoteAt,
			})
			logger.Debug().Ints("path", s.Path).Msg("closed walk found")
			continue
		}

		for edge := e.topo.Head(v); edge != graph.NoEdge; edge = e.topo.Next(edge) {
			to := e.topo.To(edge)
			closes := to == start
			if s.Visited[to] && !closes {
				continue
			}

			snap, ok := e.quoteEdge(ctx, edge, amount, &result.Stats, logger)
			if !ok {
				continue
			}

			child := s.extend(edge, to, e.pair(edge), snap, e.clock.Now())
			if closes || child.Len() < maxDepth {
				enqueue(child, to)
			} else {
				result.Stats.Pruned++
			}
		}
	}

	logger.Info().
		Int("opportunities", len(result.Opportunities)).
		Int("expanded", result.Stats.Expanded).
		Int("quotes", result.Stats.Quotes).
		Int("quote_failures", result.Stats.QuoteFailures).
		Int("cache_hits", result.Stats.CacheHits).
		Int("nodes_reached", result.Stats.NodesReached).
		Msg("search finished")

	return result, nil
}

// pair returns the asset pair edge swaps.
func (e *Engine) pair(edge int) quote.Pair {
	info := e.topo.Info(edge)
	return quote.Pair{Input: info.InputMint, Output: info.OutputMint}
}

// quoteEdge prices edge for amount, from the cache when possible.
func (e *Engine) quoteEdge(ctx context.Context, edge int, amount uint64, stats *Stats, logger zerolog.Logger) (*quote.Snapshot, bool) {
	if cache := e.config.Cache; cache != nil {
		if snap, ok := cache.Lookup(edge, e.clock.Now(), amount, e.config.CacheMaxAge); ok {
			stats.CacheHits++
			metrics.SearchQuotesTotal.WithLabelValues(metrics.SourceCache, metrics.OutcomeSuccess).Inc()
			return snap, true
		}
	}

	info := e.topo.Info(edge)
	stats.Quotes++
	snap, err := e.quoter.Quote(ctx, info.InputMint, info.OutputMint, amount, e.config.Constraints)
	if err == nil && snap == nil {
		err = quote.ErrNoQuote
	}
	if err != nil {
		stats.QuoteFailures++
		metrics.SearchQuotesTotal.WithLabelValues(metrics.SourceDirect, metrics.OutcomeFailure).Inc()
		logger.Debug().Err(err).Int("edge", edge).Msg("branch dropped")
		return nil, false
	}

	metrics.SearchQuotesTotal.WithLabelValues(metrics.SourceDirect, metrics.OutcomeSuccess).Inc()
	return snap, true
}
