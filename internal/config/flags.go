package config

import (
	"flag"
	"fmt"
	"os"
)

// ParseFlags parses command-line flags on top of environment defaults and
// returns a Config. Returns an error for unknown flags.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `arr-scraper - Prometheus exporter for media management services

Usage:
  arr-scraper [flags]

Services are configured through the environment (flags override):
  RADARR_URL,   RADARR_API_KEY     movie manager
  SONARR_URL,   SONARR_API_KEY     series manager
  JELLYFIN_URL, JELLYFIN_API_KEY   media streaming server

A service with neither URL nor API key is disabled; configuring one without
the other is a startup error.

Flags:
`)
		flag.PrintDefaults()
	}

	// Upstream services
	flag.StringVar(&cfg.Radarr.URL, "radarr-url", cfg.Radarr.URL, "Movie manager base URL")
	flag.StringVar(&cfg.Radarr.APIKey, "radarr-api-key", cfg.Radarr.APIKey, "Movie manager API key")
	flag.StringVar(&cfg.Sonarr.URL, "sonarr-url", cfg.Sonarr.URL, "Series manager base URL")
	flag.StringVar(&cfg.Sonarr.APIKey, "sonarr-api-key", cfg.Sonarr.APIKey, "Series manager API key")
	flag.StringVar(&cfg.Jellyfin.URL, "jellyfin-url", cfg.Jellyfin.URL, "Streaming server base URL")
	flag.StringVar(&cfg.Jellyfin.APIKey, "jellyfin-api-key", cfg.Jellyfin.APIKey, "Streaming server API key")

	// Inbound HTTP
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Metrics listen address")

	// Scrape behavior
	flag.DurationVar(&cfg.ScrapeTimeout, "scrape-timeout", cfg.ScrapeTimeout, "Upstream request deadline per scrape")

	// Observability
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")

	flag.Parse()

	return cfg, nil
}
