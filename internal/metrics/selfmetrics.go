package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// SelfMetrics instruments the exporter itself: how long each upstream scrape
// takes, how often it fails and why, and whether the last cycle succeeded.
// These families are merged into the /metrics body next to the collected ones.
type SelfMetrics struct {
	registry *prometheus.Registry

	scrapeDuration *prometheus.HistogramVec
	scrapeErrors   *prometheus.CounterVec
	serviceUp      *prometheus.GaugeVec
}

// NewSelfMetrics creates the exporter self-metrics on a private registry.
func NewSelfMetrics() *SelfMetrics {
	s := &SelfMetrics{
		registry: prometheus.NewRegistry(),
		scrapeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arr_scraper_scrape_duration_seconds",
				Help:    "Time spent collecting one upstream service",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"service"},
		),
		scrapeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arr_scraper_scrape_errors_total",
				Help: "Upstream collection failures by service and error kind",
			},
			[]string{"service", "reason"},
		),
		serviceUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arr_scraper_service_up",
				Help: "Whether the last collection from a service succeeded (1) or failed (0)",
			},
			[]string{"service"},
		),
	}

	s.registry.MustRegister(
		s.scrapeDuration,
		s.scrapeErrors,
		s.serviceUp,
	)

	return s
}

// ObserveScrape records the outcome of one per-service collection.
func (s *SelfMetrics) ObserveScrape(service string, elapsed time.Duration, err error) {
	s.scrapeDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	if err != nil {
		s.scrapeErrors.WithLabelValues(service, upstream.ErrorKind(err)).Inc()
		s.serviceUp.WithLabelValues(service).Set(0)
		return
	}
	s.serviceUp.WithLabelValues(service).Set(1)
}

// Gather returns the self-metric families, sorted by name.
func (s *SelfMetrics) Gather() ([]*dto.MetricFamily, error) {
	return s.registry.Gather()
}
