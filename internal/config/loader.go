package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"autoveille/internal/types"
)

// Load reads configuration from a JSON file and the environment.
// Priority (highest to lowest): env vars > config file > defaults.
// A missing config file is types.ErrConfigNotFound and aborts startup.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	setDefaults(v, cfg)

	v.SetEnvPrefix("AUTOVEILLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_base_delay", cfg.Fetcher.RetryBaseDelay)
	v.SetDefault("fetcher.page_delay", cfg.Fetcher.PageDelay)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)

	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("statistics_file", cfg.StatisticsFile)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)

	v.SetDefault("logging.level", cfg.Logging.Level)
}
