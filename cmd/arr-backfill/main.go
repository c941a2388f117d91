// Package main provides the arr-backfill CLI entry point.
//
// arr-backfill is a one-shot companion to arr-scraper: it reads the "added"
// dates the movie and series managers keep per library item, reconstructs
// cumulative growth series from them, and writes an OpenMetrics file suitable
// for promtool's TSDB backfill command.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joshuarmost/Arr-Scraper/internal/backfill"
	"github.com/joshuarmost/Arr-Scraper/internal/config"
	"github.com/joshuarmost/Arr-Scraper/internal/logging"
	"github.com/joshuarmost/Arr-Scraper/internal/metrics"
	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("arr-backfill %s\n", version)
			return 0
		}
	}

	// Seed from the same environment variables as the exporter so the two
	// binaries can share a deployment config.
	cfg := config.DefaultConfig()

	var (
		outPath string
		timeout time.Duration
	)
	flag.StringVar(&cfg.Radarr.URL, "radarr-url", cfg.Radarr.URL, "Movie manager base URL (required)")
	flag.StringVar(&cfg.Radarr.APIKey, "radarr-api-key", cfg.Radarr.APIKey, "Movie manager API key (required)")
	flag.StringVar(&cfg.Sonarr.URL, "sonarr-url", cfg.Sonarr.URL, "Series manager base URL (optional)")
	flag.StringVar(&cfg.Sonarr.APIKey, "sonarr-api-key", cfg.Sonarr.APIKey, "Series manager API key (optional)")
	flag.StringVar(&outPath, "out", "backfill.om", "Output OpenMetrics file path")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "Upstream fetch deadline")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.Parse()

	logger := logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	logging.SetDefault(logger)

	if !cfg.Radarr.Enabled() {
		fmt.Fprintln(os.Stderr, "Configuration error: -radarr-url and -radarr-api-key are required")
		return 1
	}
	if cfg.Sonarr.URL != "" && cfg.Sonarr.APIKey == "" || cfg.Sonarr.URL == "" && cfg.Sonarr.APIKey != "" {
		fmt.Fprintln(os.Stderr, "Configuration error: -sonarr-url and -sonarr-api-key must be set together")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	radarr := upstream.NewRadarr(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
	var sonarr *upstream.Sonarr
	if cfg.Sonarr.Enabled() {
		sonarr = upstream.NewSonarr(cfg.Sonarr.URL, cfg.Sonarr.APIKey, logger)
	}

	report, err := backfill.Run(ctx, radarr, sonarr, time.Now(), logger)
	if err != nil {
		logger.Error("backfill_failed", "error", err, "error_kind", upstream.ErrorKind(err))
		return 1
	}

	f, err := os.Create(outPath)
	if err != nil {
		logger.Error("output_create_failed", "path", outPath, "error", err)
		return 1
	}
	if err := metrics.EncodeOpenMetrics(f, report.Points); err != nil {
		f.Close()
		logger.Error("encode_failed", "error", err)
		return 1
	}
	if err := f.Close(); err != nil {
		logger.Error("output_close_failed", "path", outPath, "error", err)
		return 1
	}

	logger.Info("backfill_written",
		"path", outPath,
		"points", len(report.Points),
		"movies", report.Movies,
		"movies_skipped", report.MoviesSkipped,
		"series", report.Series,
		"series_skipped", report.SeriesSkipped,
	)

	fmt.Printf("Wrote %d points to %s\n", len(report.Points), outPath)
	fmt.Println()
	fmt.Println("Import into Prometheus with:")
	fmt.Printf("  promtool tsdb create-blocks-from openmetrics %s /path/to/prometheus/data\n", outPath)
	fmt.Println("then restart Prometheus (or ensure --storage.tsdb.allow-overlapping-blocks).")
	return 0
}
