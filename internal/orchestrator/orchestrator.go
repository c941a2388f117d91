package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuarmost/Arr-Scraper/internal/metrics"
	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// Orchestrator fans a collection cycle out to all configured sources and
// merges their observations. One failing source never blocks or hides the
// others: its metrics are simply absent from that cycle's output.
type Orchestrator struct {
	sources []Source
	timeout time.Duration
	self    *metrics.SelfMetrics
	logger  *slog.Logger
}

// New creates an orchestrator over the given sources. timeout bounds each
// source's cycle independently.
func New(sources []Source, timeout time.Duration, self *metrics.SelfMetrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sources: sources,
		timeout: timeout,
		self:    self,
		logger:  logger,
	}
}

// Collect runs one collection cycle: all sources in parallel, each under its
// own timeout, results merged in the fixed source order. Failures are
// recorded in the self-metrics and logged, never returned; the goroutines
// always return nil so one slow or broken service cannot cancel its siblings.
func (o *Orchestrator) Collect(ctx context.Context) metrics.ObservationSet {
	results := make([]metrics.ObservationSet, len(o.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			start := time.Now()
			set, err := src.Collect(cctx)
			elapsed := time.Since(start)

			if o.self != nil {
				o.self.ObserveScrape(src.Kind(), elapsed, err)
			}
			if err != nil {
				o.logger.Error("collect_failed",
					"service", src.Kind(),
					"error_kind", upstream.ErrorKind(err),
					"error", err,
					"elapsed", elapsed,
				)
				return nil
			}

			o.logger.Debug("collect_ok",
				"service", src.Kind(),
				"observations", len(set),
				"elapsed", elapsed,
			)
			results[i] = set
			return nil
		})
	}
	// Goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	var merged metrics.ObservationSet
	for _, set := range results {
		merged.Merge(set)
	}
	return merged
}
