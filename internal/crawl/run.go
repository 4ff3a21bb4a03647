package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"autoveille/internal/config"
	"autoveille/internal/fetcher"
	"autoveille/internal/observability"
	"autoveille/internal/store"
)

// GrabData executes one full data-collection run: the paginated
// listing sweep, the detail backfill, and the derived-field
// maintenance pass. The whole run shares one update timestamp so the
// store's snapshot (rows at the maximum update date) always covers the
// complete latest run.
func GrabData(ctx context.Context, cfg *config.Config, st *store.Store, metrics *observability.Metrics, logger *slog.Logger) error {
	template := cfg.TemplateURL()
	if err := config.ValidateTemplateURL(template); err != nil {
		return err
	}
	if cfg.URL2 != "" {
		logger.Warn("url2 is configured but the second site is not implemented, ignoring")
	}

	startURL := StartURL(template, cfg.BrandFilter, cfg.ModelFilter)
	siteBase, err := siteBaseURL(startURL)
	if err != nil {
		return err
	}

	client, err := fetcher.NewClient(&cfg.Fetcher, metrics, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer client.Close()

	now := time.Now()

	walker := NewWalker(client, st, metrics, logger, cfg.Fetcher.PageDelay, cfg.BrandFilter, cfg.ModelFilter)
	if err := walker.Run(ctx, startURL, now); err != nil {
		return err
	}

	backfiller := NewBackfiller(client, st, metrics, logger, cfg.Fetcher.PageDelay, siteBase)
	if err := backfiller.Run(ctx, now); err != nil {
		return err
	}

	touched, err := st.RecomputeDerivedFields()
	if err != nil {
		return err
	}
	logger.Info("derived fields recomputed", "rows", touched)

	return nil
}

// siteBaseURL reduces the start URL to its scheme and host, the base
// against which stored listing paths are resolved.
func siteBaseURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse listing URL: %w", err)
	}
	return u.Scheme + "://" + u.Host, nil
}
