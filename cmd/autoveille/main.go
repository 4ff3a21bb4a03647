package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"autoveille/internal/config"
	"autoveille/internal/crawl"
	"autoveille/internal/observability"
	"autoveille/internal/stats"
	"autoveille/internal/store"
)

var (
	cfgFile        string
	verbose        bool
	grabData       bool
	calculateStats bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autoveille",
		Short: "autoveille — car-listing price tracker",
		Long: `autoveille sweeps a car-classifieds site, reconciles every listing
into a local SQLite database, and exports price/mileage statistics.

A sweep walks the paginated results for the configured brand/model
filters, then backfills each listing's original price and first
publication date from its detail page.`,
		Version:       config.Version,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().BoolVar(&grabData, "grab-data", false, "run the listing sweep and detail backfill")
	rootCmd.Flags().BoolVar(&calculateStats, "calculate-stats", false, "aggregate the latest snapshot and export CSV statistics")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.json", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if !grabData && !calculateStats {
		return cmd.Help()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level)

	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	st, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("open store failed", "path", cfg.DatabasePath, "error", err)
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	metrics := observability.NewMetrics(logger)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics)
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics listener stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		logger.Info("metrics exposed", "addr", cfg.MetricsAddr, "path", "/metrics")
	}

	start := time.Now()

	if grabData {
		logger.Info("starting data collection",
			"brand", cfg.BrandFilter,
			"model", cfg.ModelFilter,
			"database", cfg.DatabasePath,
		)
		if err := crawl.GrabData(ctx, cfg, st, metrics, logger); err != nil {
			logger.Error("data collection failed", "error", err)
			return err
		}
		metrics.LogSummary()
	}

	if calculateStats {
		statistics, err := stats.ComputeSnapshot(st, logger)
		if err != nil {
			logger.Error("statistics computation failed", "error", err)
			return err
		}
		if err := stats.ExportFile(statistics, cfg.StatisticsFile, logger); err != nil {
			logger.Error("statistics export failed", "error", err)
			return err
		}
	}

	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// setupLogger creates the structured logger passed down to every
// component. The base level comes from the config; --verbose forces
// debug.
func setupLogger(configLevel string) *slog.Logger {
	level := parseLevel(configLevel)
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// parseLevel maps a config level name to a slog level. Unknown names
// fall back to info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
