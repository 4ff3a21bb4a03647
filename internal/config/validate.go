package config

import (
	"fmt"
	"net/url"
	"strings"

	"autoveille/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.PageDelay < 0 {
		return fmt.Errorf("fetcher.page_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if cfg.StatisticsFile == "" {
		return fmt.Errorf("statistics_file must not be empty")
	}
	return nil
}

// ValidateTemplateURL checks that the listing template is a usable
// absolute HTTP(S) URL.
func ValidateTemplateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("no listing URL configured (set \"url\" or \"url1\")")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", types.ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", types.ErrInvalidURL, rawURL)
	}
	if u.Host == "" || !strings.Contains(u.Host, ".") {
		return fmt.Errorf("%w: %q: no valid host", types.ErrInvalidURL, rawURL)
	}
	return nil
}
