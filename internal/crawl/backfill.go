package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autoveille/internal/extract"
	"autoveille/internal/fetcher"
	"autoveille/internal/observability"
	"autoveille/internal/store"
	"autoveille/internal/types"
)

// Backfiller enriches stored listings with detail-page data: the price
// before discount and the first publication date. It only visits
// listings whose original price is still unknown, so a second run over
// a fully backfilled store performs no fetches and no writes.
type Backfiller struct {
	fetcher *fetcher.Client
	store   *store.Store
	metrics *observability.Metrics
	logger  *slog.Logger

	delay    time.Duration
	siteBase string
}

// NewBackfiller creates a detail-page backfill sweep. siteBase is used
// to resolve stored listing paths into absolute URLs.
func NewBackfiller(f *fetcher.Client, s *store.Store, m *observability.Metrics, logger *slog.Logger, delay time.Duration, siteBase string) *Backfiller {
	return &Backfiller{
		fetcher:  f,
		store:    s,
		metrics:  m,
		logger:   logger.With("component", "backfill"),
		delay:    delay,
		siteBase: siteBase,
	}
}

// Run fetches the detail page of every listing missing an original
// price. Writes are stamped with the run timestamp now, the same value
// the listing sweep used. A failed detail fetch skips that listing and
// continues; store failures abort the run.
func (b *Backfiller) Run(ctx context.Context, now time.Time) error {
	listings, err := b.store.MissingOriginalPrice()
	if err != nil {
		return fmt.Errorf("list backfill candidates: %w", err)
	}
	if len(listings) == 0 {
		b.logger.Info("no listings to backfill")
		return nil
	}

	b.logger.Info("starting detail backfill", "listings", len(listings))

	for i := range listings {
		if i > 0 {
			if err := sleep(ctx, b.delay); err != nil {
				return err
			}
		}
		if err := b.backfillOne(ctx, &listings[i], now); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backfiller) backfillOne(ctx context.Context, l *types.Listing, now time.Time) error {
	detailURL, ok := extract.AbsoluteURL(b.siteBase, l.Link)
	if !ok {
		b.metrics.BackfillsSkipped.Add(1)
		b.logger.Warn("unresolvable listing link, skipped", "link", l.Link)
		return nil
	}

	page, err := b.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		b.metrics.FetchesFailed.Add(1)
		b.metrics.BackfillsSkipped.Add(1)
		b.logger.Warn("detail fetch failed, skipped", "url", detailURL, "error", err)
		return nil
	}
	b.metrics.PagesFetched.Add(1)

	doc, err := page.Document()
	if err != nil {
		b.metrics.BackfillsSkipped.Add(1)
		b.logger.Warn("unparseable detail page, skipped", "url", detailURL, "error", err)
		return nil
	}

	values := extract.Detail(doc, types.DetailFields())

	// No discount info on the detail page means no discount occurred:
	// the current price becomes the original price.
	price := values.OldPrice
	if price == nil {
		if l.CurrentPrice == nil {
			b.metrics.BackfillsSkipped.Add(1)
			b.logger.Warn("no price available for listing, skipped", "link", l.Link)
			return nil
		}
		fallback := float64(*l.CurrentPrice)
		price = &fallback
	}

	if err := b.store.SetOriginalPrice(l.Link, *price, values.FirstPublicationDate, now); err != nil {
		return fmt.Errorf("backfill %s: %w", l.Link, err)
	}
	b.metrics.BackfillsApplied.Add(1)
	b.logger.Debug("listing backfilled",
		"link", l.Link,
		"original_price", *price,
		"first_publication_date", values.FirstPublicationDate,
	)
	return nil
}
