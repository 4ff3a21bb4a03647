package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for autoveille. The top-level keys
// mirror the historical config.json layout; fetcher tuning lives in its
// own section.
type Config struct {
	// URL is the listing-results template. It carries the
	// "u_car_brand=?" and "u_car_model=?" placeholder tokens that the
	// walker substitutes with the configured filters.
	URL string `mapstructure:"url" json:"url"`

	// URL1 is accepted as a legacy alias for URL.
	URL1 string `mapstructure:"url1" json:"url1"`

	// URL2 is recognized but the second site is not implemented.
	URL2 string `mapstructure:"url2" json:"url2"`

	BrandFilter string `mapstructure:"brand_filter" json:"brand_filter"`
	ModelFilter string `mapstructure:"model_filter" json:"model_filter"`

	DatabasePath   string `mapstructure:"database_path"   json:"database_path"`
	StatisticsFile string `mapstructure:"statistics_file" json:"statistics_file"`

	// MetricsAddr, when set, exposes the run counters on this address
	// at /metrics in Prometheus text format. Empty disables the
	// listener.
	MetricsAddr string `mapstructure:"metrics_addr" json:"metrics_addr"`

	Fetcher FetcherConfig `mapstructure:"fetcher" json:"fetcher"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  json:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"      json:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay" json:"retry_base_delay"`
	PageDelay       time.Duration `mapstructure:"page_delay"       json:"page_delay"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    json:"max_body_size"`
	FollowRedirects bool          `mapstructure:"follow_redirects" json:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"    json:"max_redirects"`
	UserAgent       string        `mapstructure:"user_agent"       json:"user_agent"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// TemplateURL returns the listing template, honoring the url1 alias.
func (c *Config) TemplateURL() string {
	if c.URL != "" {
		return c.URL
	}
	return c.URL1
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:   "cars.db",
		StatisticsFile: "statistics.csv",
		Fetcher: FetcherConfig{
			RequestTimeout:  10 * time.Second,
			MaxRetries:      3,
			RetryBaseDelay:  500 * time.Millisecond,
			PageDelay:       2 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			FollowRedirects: true,
			MaxRedirects:    10,
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
