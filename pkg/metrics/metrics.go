// Package metrics holds the Prometheus collectors for refresh passes and
// cycle searches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshPassesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cycles_refresh_passes_total",
		Help: "Completed refresh passes",
	})
	RefreshCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cycles_refresh_candidates",
		Help: "Stale edges selected by the last refresh pass",
	})
	EdgeRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cycles_edge_refreshes_total",
		Help: "Edge refresh attempts by outcome",
	}, []string{"outcome"})
	RefreshPassSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cycles_refresh_pass_seconds",
		Help:    "Wall-clock duration of a refresh pass",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	RefreshInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cycles_refresh_in_flight",
		Help: "Quote requests currently in flight for the refresher",
	})

	SearchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cycles_searches_total",
		Help: "Completed cycle searches",
	})
	SearchQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cycles_search_quotes_total",
		Help: "Quotes used by the search by source (cache, direct) and outcome",
	}, []string{"source", "outcome"})
	OpportunitiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cycles_opportunities_total",
		Help: "Closed walks emitted by searches",
	})
	SearchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cycles_search_seconds",
		Help:    "Wall-clock duration of a cycle search",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	FeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cycles_feed_clients",
		Help: "Connected websocket feed clients",
	})
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Quote source label values.
const (
	SourceCache  = "cache"
	SourceDirect = "direct"
)

// NewRegistry returns a registry with every collector plus Go and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		RefreshPassesTotal, RefreshCandidates, EdgeRefreshesTotal, RefreshPassSeconds, RefreshInFlight,
		SearchesTotal, SearchQuotesTotal, OpportunitiesTotal, SearchSeconds,
		FeedClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
