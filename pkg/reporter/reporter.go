// Package reporter renders cycle search results for humans and machines.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/mints"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
	"github.com/jonasrmichel/solana-cycles/pkg/search"
)

// OutputFormat specifies the output format for reports.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// ParseFormat maps a format name to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Stats tracks reporting activity.
type Stats struct {
	StartTime          time.Time
	TotalSearches      int64
	OpportunitiesFound int64
	LastSearchTime     time.Time
	Errors             int64
}

// Hop is one priced edge of a walk, in display units.
type Hop struct {
	Edge      int             `json:"edge"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	InAmount  decimal.Decimal `json:"in_amount"`
	OutAmount decimal.Decimal `json:"out_amount"`
	Rate      decimal.Decimal `json:"rate"` // Units of To per unit of From
	Route     []string        `json:"route,omitempty"`
}

// Reporter outputs search results in various formats.
type Reporter struct {
	output   io.Writer
	format   OutputFormat
	verbose  bool
	registry *mints.Registry
	topo     *graph.Topology
	now      func() time.Time

	stats   Stats
	statsMu sync.Mutex
}

// NewReporter creates a new reporter.
func NewReporter(output io.Writer, format OutputFormat, verbose bool, registry *mints.Registry, topo *graph.Topology) *Reporter {
	if output == nil {
		output = os.Stdout
	}
	return &Reporter{
		output:   output,
		format:   format,
		verbose:  verbose,
		registry: registry,
		topo:     topo,
		now:      time.Now,
		stats:    Stats{StartTime: time.Now()},
	}
}

// ReportResult reports the walks found by one search.
func (r *Reporter) ReportResult(res *search.Result) {
	r.updateStats(res)

	switch r.format {
	case FormatJSON:
		r.reportJSON(res)
	case FormatCSV:
		r.reportCSV(res)
	default:
		if len(res.Opportunities) == 0 {
			r.printNoOpportunities(res)
			return
		}
		r.reportText(res)
	}
}

// Hops converts a walk into display hops. Amounts are scaled by token
// decimals; a hop whose quote is missing has zero amounts.
func (r *Reporter) Hops(opp *search.Opportunity) []Hop {
	hops := make([]Hop, 0, len(opp.Path))
	for _, e := range opp.Path {
		info := r.topo.Info(e)
		hop := Hop{
			Edge: e,
			From: r.registry.Symbol(info.InputMint),
			To:   r.registry.Symbol(info.OutputMint),
		}

		if snap, ok := opp.Quotes[quote.Pair{Input: info.InputMint, Output: info.OutputMint}]; ok {
			hop.InAmount = r.scale(info.InputMint, snap.InAmount)
			hop.OutAmount = r.scale(info.OutputMint, snap.OutAmount)
			if !hop.InAmount.IsZero() {
				hop.Rate = hop.OutAmount.Div(hop.InAmount)
			}
			hop.Route = snap.Labels()
		}
		hops = append(hops, hop)
	}
	return hops
}

// scale converts base units of mint into whole tokens.
func (r *Reporter) scale(mint string, amount decimal.Decimal) decimal.Decimal {
	id, ok := r.registry.NodeID(mint)
	if !ok {
		return amount
	}
	tok, _ := r.registry.Token(id)
	return amount.Shift(-int32(tok.Decimals))
}

func (r *Reporter) startSymbol(res *search.Result) string {
	if tok, ok := r.registry.Token(res.Start); ok {
		return tok.Symbol
	}
	return fmt.Sprintf("node %d", res.Start)
}

// walk renders a path as "A -> B -> A".
func walk(hops []Hop) string {
	if len(hops) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hops)+1)
	parts = append(parts, hops[0].From)
	for _, h := range hops {
		parts = append(parts, h.To)
	}
	return strings.Join(parts, " -> ")
}

// Describe renders a walk on one line with its rate product.
func (r *Reporter) Describe(opp *search.Opportunity) string {
	hops := r.Hops(opp)
	return fmt.Sprintf("%s (rate product %s)", walk(hops), rateProduct(hops).Round(8).String())
}

// rateProduct multiplies the hop rates.
func rateProduct(hops []Hop) decimal.Decimal {
	product := decimal.NewFromInt(1)
	for _, h := range hops {
		product = product.Mul(h.Rate)
	}
	return product
}

// reportText outputs walks in human-readable text format.
func (r *Reporter) reportText(res *search.Result) {
	now := r.now()

	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("=", 80))
	fmt.Fprintf(r.output, "CLOSED WALKS FROM %s: %d\n", r.startSymbol(res), len(res.Opportunities))
	fmt.Fprintf(r.output, "Run:  %s\n", res.RunID)
	fmt.Fprintf(r.output, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintln(r.output, strings.Repeat("=", 80))

	for i, opp := range res.Opportunities {
		hops := r.Hops(opp)

		fmt.Fprintln(r.output)
		fmt.Fprintf(r.output, "--- Walk #%d ---\n", i+1)
		fmt.Fprintf(r.output, "Path:         %s\n", walk(hops))
		for _, h := range hops {
			fmt.Fprintf(r.output, "  %-8s -> %-8s %s -> %s (rate %s)",
				h.From, h.To, h.InAmount.String(), h.OutAmount.String(), h.Rate.Round(8).String())
			if r.verbose && len(h.Route) > 0 {
				fmt.Fprintf(r.output, " via %s", strings.Join(h.Route, ", "))
			}
			fmt.Fprintln(r.output)
		}
		fmt.Fprintf(r.output, "Rate product: %s\n", rateProduct(hops).Round(8).String())
		fmt.Fprintf(r.output, "Quote age:    %s\n", opp.Age(now).Round(time.Millisecond))
	}

	if r.verbose {
		fmt.Fprintln(r.output)
		fmt.Fprintf(r.output, "Expanded %d states, %d quotes (%d failed), %d cache hits, %d nodes reached in %s\n",
			res.Stats.Expanded, res.Stats.Quotes, res.Stats.QuoteFailures, res.Stats.CacheHits,
			res.Stats.NodesReached, res.Stats.Duration.Round(time.Millisecond))
	}

	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("-", 80))
}

// opportunityJSON is a JSON-friendly representation of a walk.
type opportunityJSON struct {
	Walk         string          `json:"walk"`
	Path         []int           `json:"path"`
	Hops         []Hop           `json:"hops"`
	RateProduct  decimal.Decimal `json:"rate_product"`
	FirstQuoteAt string          `json:"first_quote_at"`
	AgeMs        int64           `json:"age_ms"`
}

// reportJSON outputs walks in JSON format.
func (r *Reporter) reportJSON(res *search.Result) {
	now := r.now()

	walks := make([]*opportunityJSON, 0, len(res.Opportunities))
	for _, opp := range res.Opportunities {
		hops := r.Hops(opp)
		walks = append(walks, &opportunityJSON{
			Walk:         walk(hops),
			Path:         opp.Path,
			Hops:         hops,
			RateProduct:  rateProduct(hops),
			FirstQuoteAt: opp.FirstQuoteAt.Format(time.RFC3339Nano),
			AgeMs:        opp.Age(now).Milliseconds(),
		})
	}

	report := struct {
		Timestamp     string             `json:"timestamp"`
		RunID         string             `json:"run_id"`
		Start         string             `json:"start"`
		Count         int                `json:"count"`
		Opportunities []*opportunityJSON `json:"opportunities"`
		Stats         search.Stats       `json:"stats"`
	}{
		Timestamp:     now.Format(time.RFC3339),
		RunID:         res.RunID,
		Start:         r.startSymbol(res),
		Count:         len(walks),
		Opportunities: walks,
		Stats:         res.Stats,
	}

	encoder := json.NewEncoder(r.output)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		r.RecordError()
	}
}

// reportCSV outputs one line per walk.
func (r *Reporter) reportCSV(res *search.Result) {
	fmt.Fprintln(r.output, "timestamp,run_id,walk,hops,rate_product,age_ms")

	now := r.now()
	for _, opp := range res.Opportunities {
		hops := r.Hops(opp)
		fmt.Fprintf(r.output, "%s,%s,%s,%d,%s,%d\n",
			now.Format(time.RFC3339),
			res.RunID,
			walk(hops),
			len(hops),
			rateProduct(hops).Round(8).String(),
			opp.Age(now).Milliseconds(),
		)
	}
}

// printNoOpportunities prints a message when nothing closed.
func (r *Reporter) printNoOpportunities(res *search.Result) {
	if !r.verbose {
		return
	}
	reason := ""
	if !res.Stats.StartHasEdges {
		reason = " (start has no outgoing edges)"
	}
	fmt.Fprintf(r.output, "[%s] No closed walks from %s%s\n", r.now().Format("15:04:05"), r.startSymbol(res), reason)
}

// updateStats updates reporting statistics.
func (r *Reporter) updateStats(res *search.Result) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	r.stats.TotalSearches++
	r.stats.LastSearchTime = r.now()
	r.stats.OpportunitiesFound += int64(len(res.Opportunities))
}

// GetStats returns current reporting statistics.
func (r *Reporter) GetStats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// PrintStats prints reporting statistics.
func (r *Reporter) PrintStats() {
	stats := r.GetStats()

	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("=", 50))
	fmt.Fprintln(r.output, "SEARCH STATISTICS")
	fmt.Fprintln(r.output, strings.Repeat("=", 50))
	fmt.Fprintf(r.output, "Running since:              %s\n", stats.StartTime.Format(time.RFC3339))
	fmt.Fprintf(r.output, "Uptime:                     %s\n", r.now().Sub(stats.StartTime).Round(time.Second))
	fmt.Fprintf(r.output, "Searches:                   %d\n", stats.TotalSearches)
	fmt.Fprintf(r.output, "Closed walks found:         %d\n", stats.OpportunitiesFound)
	fmt.Fprintf(r.output, "Errors:                     %d\n", stats.Errors)
	fmt.Fprintln(r.output, strings.Repeat("-", 50))
}

// RecordError records an error in statistics.
func (r *Reporter) RecordError() {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.stats.Errors++
}
