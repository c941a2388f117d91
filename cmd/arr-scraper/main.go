// Package main provides the arr-scraper CLI entry point.
//
// arr-scraper is a Prometheus exporter that polls media management services
// (movie manager, series manager, media streaming server) and serves their
// library, queue, and streaming statistics as text exposition on /metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshuarmost/Arr-Scraper/internal/config"
	"github.com/joshuarmost/Arr-Scraper/internal/logging"
	"github.com/joshuarmost/Arr-Scraper/internal/metrics"
	"github.com/joshuarmost/Arr-Scraper/internal/orchestrator"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/arr-scraper
var version = "dev"

// shutdownTimeout bounds graceful drain of in-flight scrapes on exit.
const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("arr-scraper %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	logger := logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	logger.Info("starting",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"scrape_timeout", cfg.ScrapeTimeout,
		"radarr", cfg.Radarr.Enabled(),
		"sonarr", cfg.Sonarr.Enabled(),
		"jellyfin", cfg.Jellyfin.Enabled(),
	)

	sources := orchestrator.BuildSources(cfg, logger)
	self := metrics.NewSelfMetrics()
	orch := orchestrator.New(sources, cfg.ScrapeTimeout, self, logger)

	server := metrics.NewServer(cfg.ListenAddr, orch, self, logger)
	if err := server.Start(); err != nil {
		logger.Error("server_start_failed", "error", err)
		return 1
	}
	logger.Info("metrics_available", "url", fmt.Sprintf("http://%s/metrics", server.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
		return 1
	}

	logger.Info("stopped")
	return 0
}
