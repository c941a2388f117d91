// Package config provides configuration management for arr-scraper.
package config

import (
	"os"
	"strings"
	"time"
)

// ServiceConfig holds the connection settings for one upstream media service.
// A service is enabled only when both URL and APIKey are set; immutable after
// startup.
type ServiceConfig struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key"`
}

// Enabled reports whether the service is configured for collection.
func (s ServiceConfig) Enabled() bool {
	return s.URL != "" && s.APIKey != ""
}

// Config holds all configuration options for the exporter.
type Config struct {
	// Upstream services
	Radarr   ServiceConfig `json:"radarr"`
	Sonarr   ServiceConfig `json:"sonarr"`
	Jellyfin ServiceConfig `json:"jellyfin"`

	// Inbound HTTP
	ListenAddr string `json:"listen_addr"`

	// Upstream request deadline per scrape cycle
	ScrapeTimeout time.Duration `json:"scrape_timeout"`

	// Observability
	LogFormat string `json:"log_format"` // json, text
	Verbose   bool   `json:"verbose"`
}

// DefaultConfig returns a Config with sensible defaults, seeded from the
// environment. Flags parsed afterwards override these values.
func DefaultConfig() *Config {
	cfg := &Config{
		ListenAddr:    "0.0.0.0:9877",
		ScrapeTimeout: 10 * time.Second,
		LogFormat:     "json",
		Verbose:       false,
	}
	applyEnv(cfg)
	return cfg
}

// applyEnv overlays environment variables onto cfg. Empty variables leave the
// current value untouched.
func applyEnv(cfg *Config) {
	setString(&cfg.Radarr.URL, "RADARR_URL")
	setString(&cfg.Radarr.APIKey, "RADARR_API_KEY")
	setString(&cfg.Sonarr.URL, "SONARR_URL")
	setString(&cfg.Sonarr.APIKey, "SONARR_API_KEY")
	setString(&cfg.Jellyfin.URL, "JELLYFIN_URL")
	setString(&cfg.Jellyfin.APIKey, "JELLYFIN_API_KEY")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("SCRAPE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ScrapeTimeout = d
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
