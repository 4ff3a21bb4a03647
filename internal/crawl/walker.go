package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"autoveille/internal/extract"
	"autoveille/internal/fetcher"
	"autoveille/internal/observability"
	"autoveille/internal/store"
	"autoveille/internal/types"
)

// Placeholder tokens in the configured listing-results template.
const (
	brandPlaceholder = "u_car_brand=?"
	modelPlaceholder = "u_car_model=?"
)

// State is the walker's pagination state: either there is a next page
// to fetch, or the sweep is done.
type State struct {
	next string
	done bool
}

// HasNext builds the state pointing at the next page to fetch.
func HasNext(url string) State { return State{next: url} }

// Done is the terminal state.
func Done() State { return State{done: true} }

// StartURL substitutes the brand/model filter placeholders into the
// configured template URL.
func StartURL(template, brand, model string) string {
	u := strings.Replace(template, brandPlaceholder, "u_car_brand="+url.QueryEscape(brand), 1)
	u = strings.Replace(u, modelPlaceholder, "u_car_model="+url.QueryEscape(model), 1)
	return u
}

// Walker drives the sequential page-by-page listing sweep.
type Walker struct {
	fetcher *fetcher.Client
	store   *store.Store
	metrics *observability.Metrics
	logger  *slog.Logger

	delay time.Duration
	brand string
	model string
}

// NewWalker creates a pagination walker. Brand and model are required
// sweep inputs: they are stored on every inserted row, never inferred
// from listing content.
func NewWalker(f *fetcher.Client, s *store.Store, m *observability.Metrics, logger *slog.Logger, delay time.Duration, brand, model string) *Walker {
	return &Walker{
		fetcher: f,
		store:   s,
		metrics: m,
		logger:  logger.With("component", "walker"),
		delay:   delay,
		brand:   brand,
		model:   model,
	}
}

// Run walks result pages starting at startURL until the next-page link
// disappears. Every sighting is stamped with the run timestamp now, so
// a whole run shares one snapshot value. A fetch failure on the first
// page is an error (the sweep never started); on a later page it stops
// pagination for the run. Store failures abort immediately.
func (w *Walker) Run(ctx context.Context, startURL string, now time.Time) error {
	state := HasNext(startURL)
	pageNum := 0

	for !state.done {
		if pageNum > 0 {
			if err := sleep(ctx, w.delay); err != nil {
				return err
			}
		}
		pageNum++

		page, err := w.fetcher.Fetch(ctx, state.next)
		if err != nil {
			w.metrics.FetchesFailed.Add(1)
			if pageNum == 1 {
				return fmt.Errorf("fetch first results page: %w", err)
			}
			w.logger.Warn("page fetch failed, stopping pagination", "page", pageNum, "url", state.next, "error", err)
			return nil
		}
		w.metrics.PagesFetched.Add(1)

		doc, err := page.Document()
		if err != nil {
			w.logger.Warn("unparseable page, stopping pagination", "page", pageNum, "url", page.URL, "error", err)
			return nil
		}

		cards := extract.ListingCards(doc)
		w.logger.Info("results page scraped", "page", pageNum, "url", page.URL, "listings", len(cards))

		for _, card := range cards {
			w.metrics.ListingsSeen.Add(1)
			values := extract.Card(card, types.CardFields())
			if values.Link == nil {
				w.metrics.ListingsSkipped.Add(1)
				w.logger.Warn("listing card without link, skipped", "page", pageNum)
				continue
			}

			listing := &types.Listing{
				Link:         *values.Link,
				Brand:        w.brand,
				Model:        w.model,
				Year:         values.Year,
				Mileage:      values.Mileage,
				CurrentPrice: values.CurrentPrice,
				UpdateDate:   now,
			}
			if values.Title != nil {
				listing.Title = *values.Title
			}
			if values.Gearbox != nil {
				listing.Gearbox = *values.Gearbox
			}

			inserted, err := w.store.UpsertSighting(listing)
			if err != nil {
				return fmt.Errorf("upsert sighting %s: %w", listing.Link, err)
			}
			if inserted {
				w.metrics.ListingsInserted.Add(1)
			} else {
				w.metrics.ListingsUpdated.Add(1)
			}
		}

		if next, ok := extract.NextPageURL(doc, page.URL); ok {
			state = HasNext(next)
		} else {
			state = Done()
		}
	}

	return nil
}

// sleep waits for the politeness delay, honoring cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
