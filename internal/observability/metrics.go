package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for one run.
type Metrics struct {
	// Fetch metrics
	PagesFetched   atomic.Int64
	FetchesFailed  atomic.Int64
	FetchesRetried atomic.Int64

	// Sweep metrics
	ListingsSeen     atomic.Int64
	ListingsInserted atomic.Int64
	ListingsUpdated  atomic.Int64
	ListingsSkipped  atomic.Int64

	// Backfill metrics
	BackfillsApplied atomic.Int64
	BackfillsSkipped atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// LogSummary emits the end-of-run counter summary.
func (m *Metrics) LogSummary() {
	m.logger.Info("run summary",
		"pages_fetched", m.PagesFetched.Load(),
		"fetches_failed", m.FetchesFailed.Load(),
		"listings_seen", m.ListingsSeen.Load(),
		"listings_inserted", m.ListingsInserted.Load(),
		"listings_updated", m.ListingsUpdated.Load(),
		"listings_skipped", m.ListingsSkipped.Load(),
		"backfills_applied", m.BackfillsApplied.Load(),
		"backfills_skipped", m.BackfillsSkipped.Load(),
	)
}

// ServeHTTP serves the counters in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"autoveille_pages_fetched_total", "Total result pages fetched", m.PagesFetched.Load()},
		{"autoveille_fetches_failed_total", "Total failed fetches", m.FetchesFailed.Load()},
		{"autoveille_fetches_retried_total", "Total retried fetches", m.FetchesRetried.Load()},
		{"autoveille_listings_seen_total", "Total listing cards seen", m.ListingsSeen.Load()},
		{"autoveille_listings_inserted_total", "Total new listings inserted", m.ListingsInserted.Load()},
		{"autoveille_listings_updated_total", "Total listings price-updated", m.ListingsUpdated.Load()},
		{"autoveille_listings_skipped_total", "Total listing cards skipped", m.ListingsSkipped.Load()},
		{"autoveille_backfills_applied_total", "Total detail backfills applied", m.BackfillsApplied.Load()},
		{"autoveille_backfills_skipped_total", "Total detail backfills skipped", m.BackfillsSkipped.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}
