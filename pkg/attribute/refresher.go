package attribute

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/metrics"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
)

// Config holds configuration for the refresher.
type Config struct {
	StalenessThreshold time.Duration      // Edges older than this are refreshed
	MaxConcurrency     int                // Quote requests in flight at once
	Interval           time.Duration      // Sleep between passes
	Amount             uint64             // Input amount quoted for every edge, in base units
	Constraints        *quote.Constraints // Optional routing constraints
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		StalenessThreshold: 50 * time.Millisecond,
		MaxConcurrency:     50,
		Interval:           10 * time.Millisecond,
		Amount:             1_000_000_000, // 1 SOL in lamports
	}
}

// PassResult summarizes one refresh pass.
type PassResult struct {
	Candidates int           `json:"candidates"` // Stale edges found by the scan
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"` // Not issued because the context ended
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RefresherStats tracks refresher activity.
type RefresherStats struct {
	Passes    int        `json:"passes"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	LastPass  PassResult `json:"last_pass"`
}

// candidate is a stale edge and the timestamp it was selected with.
type candidate struct {
	edge      int
	updatedAt time.Time
}

// Refresher re-quotes stale edges with bounded concurrency, stalest first.
type Refresher struct {
	topo   *graph.Topology
	cache  *Cache
	quoter quote.Quoter
	config *Config
	clock  Clock
	logger zerolog.Logger

	onPass func(PassResult)

	mu    sync.RWMutex
	stats RefresherStats
}

// NewRefresher creates a refresher for topo's edges.
func NewRefresher(topo *graph.Topology, cache *Cache, quoter quote.Quoter, config *Config, logger zerolog.Logger) (*Refresher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if cache.Len() != topo.EdgeCount() {
		return nil, fmt.Errorf("cache has %d cells for %d edges", cache.Len(), topo.EdgeCount())
	}
	if config.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.StalenessThreshold < 0 {
		return nil, fmt.Errorf("staleness threshold cannot be negative")
	}

	return &Refresher{
		topo:   topo,
		cache:  cache,
		quoter: quoter,
		config: config,
		clock:  SystemClock{},
		logger: logger.With().Str("component", "refresher").Logger(),
	}, nil
}

// SetClock replaces the clock used for staleness and completion times.
func (r *Refresher) SetClock(clock Clock) {
	r.clock = clock
}

// SetPassCallback sets a callback invoked after every pass completes.
func (r *Refresher) SetPassCallback(cb func(PassResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPass = cb
}

// Run executes passes separated by the configured interval until ctx ends.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info().
		Int("edges", r.cache.Len()).
		Dur("threshold", r.config.StalenessThreshold).
		Int("max_concurrency", r.config.MaxConcurrency).
		Dur("interval", r.config.Interval).
		Msg("refresher started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("refresher stopped")
			return ctx.Err()
		case <-timer.C:
		}

		r.RunPass(ctx)
		timer.Reset(r.config.Interval)
	}
}

// RunPass scans for stale edges, refreshes them and waits for every
// request to finish. Failures leave their cells untouched.
func (r *Refresher) RunPass(ctx context.Context) PassResult {
	started := time.Now()
	result := PassResult{StartedAt: r.clock.Now()}

	candidates := r.scan(result.StartedAt)
	result.Candidates = len(candidates)
	metrics.RefreshCandidates.Set(float64(len(candidates)))

	sem := semaphore.NewWeighted(int64(r.config.MaxConcurrency))
	var wg sync.WaitGroup
	var succeeded, failed atomic.Int64

	for i, c := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			result.Skipped = len(candidates) - i
			break
		}

		wg.Add(1)
		go func(edge int) {
			defer wg.Done()
			defer sem.Release(1)

			if err := r.refreshEdge(ctx, edge); err != nil {
				failed.Add(1)
				return
			}
			succeeded.Add(1)
		}(c.edge)
	}
	wg.Wait()

	result.Succeeded = int(succeeded.Load())
	result.Failed = int(failed.Load())
	result.Duration = time.Since(started)

	metrics.RefreshPassesTotal.Inc()
	metrics.RefreshPassSeconds.Observe(result.Duration.Seconds())

	r.mu.Lock()
	r.stats.Passes++
	r.stats.Succeeded += result.Succeeded
	r.stats.Failed += result.Failed
	r.stats.LastPass = result
	callback := r.onPass
	r.mu.Unlock()

	if result.Candidates > 0 {
		r.logger.Debug().
			Int("candidates", result.Candidates).
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Int("skipped", result.Skipped).
			Dur("took", result.Duration).
			Msgf("updated %d/%d edges", result.Succeeded, result.Candidates)
	}

	if callback != nil {
		callback(result)
	}

	return result
}

// scan returns the edges older than the threshold at now, stalest first.
func (r *Refresher) scan(now time.Time) []candidate {
	candidates := make([]candidate, 0, r.cache.Len())
	for e := 0; e < r.cache.Len(); e++ {
		updatedAt := r.cache.Cell(e).UpdatedAt()
		if now.Sub(updatedAt) > r.config.StalenessThreshold {
			candidates = append(candidates, candidate{edge: e, updatedAt: updatedAt})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].updatedAt.Before(candidates[j].updatedAt)
	})
	return candidates
}

// refreshEdge quotes one edge and stores the result stamped with the
// completion time.
func (r *Refresher) refreshEdge(ctx context.Context, edge int) error {
	info := r.topo.Info(edge)

	metrics.RefreshInFlight.Inc()
	snap, err := r.quoter.Quote(ctx, info.InputMint, info.OutputMint, r.config.Amount, r.config.Constraints)
	metrics.RefreshInFlight.Dec()
	if err == nil && snap == nil {
		err = quote.ErrNoQuote
	}

	if err != nil {
		metrics.EdgeRefreshesTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		r.logger.Warn().Err(err).Int("edge", edge).Msg("edge refresh failed")
		return err
	}

	r.cache.Cell(edge).Store(snap, r.config.Amount, r.clock.Now())
	metrics.EdgeRefreshesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return nil
}

// Stats returns current refresher statistics.
func (r *Refresher) Stats() RefresherStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Cache returns the cache being refreshed.
func (r *Refresher) Cache() *Cache {
	return r.cache
}

// Config returns the refresher configuration.
func (r *Refresher) Config() *Config {
	return r.config
}
