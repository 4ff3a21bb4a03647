package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autoveille/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, types.ErrConfigNotFound) {
		t.Errorf("Load on missing file = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
      "url": "https://example.org/recherche?u_car_brand=?&u_car_model=?",
      "brand_filter": "PEUGEOT",
      "model_filter": "208"
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.BrandFilter != "PEUGEOT" || cfg.ModelFilter != "208" {
		t.Errorf("filters = %q/%q, want PEUGEOT/208", cfg.BrandFilter, cfg.ModelFilter)
	}
	if cfg.DatabasePath != "cars.db" {
		t.Errorf("database_path = %q, want default cars.db", cfg.DatabasePath)
	}
	if cfg.StatisticsFile != "statistics.csv" {
		t.Errorf("statistics_file = %q, want default statistics.csv", cfg.StatisticsFile)
	}
	if cfg.Fetcher.MaxRetries != 3 {
		t.Errorf("fetcher.max_retries = %d, want default 3", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.PageDelay != 2*time.Second {
		t.Errorf("fetcher.page_delay = %v, want default 2s", cfg.Fetcher.PageDelay)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
      "url": "https://example.org/recherche",
      "database_path": "/tmp/other.db",
      "metrics_addr": "127.0.0.1:9090",
      "fetcher": {"max_retries": 5, "page_delay": "500ms"}
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/other.db" {
		t.Errorf("database_path = %q, want /tmp/other.db", cfg.DatabasePath)
	}
	if cfg.MetricsAddr != "127.0.0.1:9090" {
		t.Errorf("metrics_addr = %q, want 127.0.0.1:9090", cfg.MetricsAddr)
	}
	if cfg.Fetcher.MaxRetries != 5 {
		t.Errorf("fetcher.max_retries = %d, want 5", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.PageDelay != 500*time.Millisecond {
		t.Errorf("fetcher.page_delay = %v, want 500ms", cfg.Fetcher.PageDelay)
	}
}

func TestTemplateURLHonorsLegacyAlias(t *testing.T) {
	cfg := &Config{URL1: "https://example.org/only-url1"}
	if got := cfg.TemplateURL(); got != "https://example.org/only-url1" {
		t.Errorf("TemplateURL = %q, want url1 fallback", got)
	}

	cfg.URL = "https://example.org/url-wins"
	if got := cfg.TemplateURL(); got != "https://example.org/url-wins" {
		t.Errorf("TemplateURL = %q, want url to take precedence", got)
	}
}

func TestValidateTemplateURL(t *testing.T) {
	valid := []string{
		"https://example.org/recherche?u_car_brand=?&u_car_model=?",
		"http://example.org/recherche",
	}
	for _, u := range valid {
		if err := ValidateTemplateURL(u); err != nil {
			t.Errorf("ValidateTemplateURL(%q) = %v, want nil", u, err)
		}
	}

	if err := ValidateTemplateURL(""); err == nil {
		t.Error("ValidateTemplateURL(\"\") = nil, want error")
	}

	invalid := []string{
		"not a url",
		"ftp://example.org/files",
		"https://localhost/recherche",
	}
	for _, u := range invalid {
		if err := ValidateTemplateURL(u); !errors.Is(err, types.ErrInvalidURL) {
			t.Errorf("ValidateTemplateURL(%q) = %v, want ErrInvalidURL", u, err)
		}
	}
}
