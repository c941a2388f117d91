package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	services := []struct {
		name string
		svc  ServiceConfig
	}{
		{"radarr", cfg.Radarr},
		{"sonarr", cfg.Sonarr},
		{"jellyfin", cfg.Jellyfin},
	}

	anyEnabled := false
	for _, s := range services {
		switch {
		case s.svc.Enabled():
			anyEnabled = true
			if err := validateURL(s.svc.URL); err != nil {
				errs = append(errs, ValidationError{
					Field:   s.name + "_url",
					Message: err.Error(),
				})
			}
		case s.svc.URL != "" && s.svc.APIKey == "":
			errs = append(errs, ValidationError{
				Field:   s.name + "_api_key",
				Message: "URL configured without an API key",
			})
		case s.svc.URL == "" && s.svc.APIKey != "":
			errs = append(errs, ValidationError{
				Field:   s.name + "_url",
				Message: "API key configured without a URL",
			})
		}
	}

	if !anyEnabled {
		errs = append(errs, ValidationError{
			Field:   "services",
			Message: "no upstream service configured (set at least one of RADARR_URL, SONARR_URL, JELLYFIN_URL with its API key)",
		})
	}

	if cfg.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "listen",
			Message: "listen address is required",
		})
	}

	if cfg.ScrapeTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "scrape_timeout",
			Message: "must be positive",
		})
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf(`must be "json" or "text" (got %q)`, cfg.LogFormat),
		})
	}

	return errors.Join(errs...)
}

// validateURL checks that a service base URL is an absolute http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL is missing a host")
	}
	return nil
}
