package main

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLoggerVerboseOverridesConfig(t *testing.T) {
	verbose = true
	defer func() { verbose = false }()

	logger := setupLogger("error")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("--verbose must force debug logging over the config level")
	}
}

func TestSetupLoggerHonorsConfigLevel(t *testing.T) {
	logger := setupLogger("warn")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must be suppressed when the config level is warn")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn must be enabled when the config level is warn")
	}
}
