// Package backfill reconstructs cumulative library-growth series from the
// "added" timestamps the managers keep per item, for one-shot import into a
// Prometheus TSDB via the OpenMetrics backfill path.
package backfill

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/joshuarmost/Arr-Scraper/internal/metrics"
	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// Metric names for the reconstructed series.
const (
	MovieMetric   = "radarr_cumulative_movies"
	EpisodeMetric = "sonarr_cumulative_episodes"
)

// Entry is one library item that contributes to a cumulative series: the day
// it was added and how much it adds to the running total.
type Entry struct {
	Added  time.Time
	Weight float64
}

// Build turns entries into a cumulative series: one point per day on which
// the total changed, timestamped at that day's UTC midnight, plus a closing
// point at now's day so the series reaches the present without a gap. The
// returned points are in strictly increasing timestamp order. nil when there
// are no entries.
func Build(name string, entries []Entry, now time.Time) []metrics.HistoricalPoint {
	if len(entries) == 0 {
		return nil
	}

	perDay := make(map[time.Time]float64)
	for _, e := range entries {
		day := e.Added.UTC().Truncate(24 * time.Hour)
		perDay[day] += e.Weight
	}

	days := make([]time.Time, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]metrics.HistoricalPoint, 0, len(days)+1)
	var total float64
	for _, day := range days {
		total += perDay[day]
		points = append(points, metrics.HistoricalPoint{
			Name:      name,
			Value:     total,
			Timestamp: day,
		})
	}

	today := now.UTC().Truncate(24 * time.Hour)
	if last := days[len(days)-1]; last.Before(today) {
		points = append(points, metrics.HistoricalPoint{
			Name:      name,
			Value:     total,
			Timestamp: today,
		})
	}
	return points
}

// MovieEntries maps the movie library onto cumulative entries, one unit per
// movie. Items without a usable added date are skipped and counted.
func MovieEntries(movies []upstream.Movie) (entries []Entry, skipped int) {
	for _, m := range movies {
		added, ok := parseAdded(m.Added)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, Entry{Added: added, Weight: 1})
	}
	return entries, skipped
}

// SeriesEntries maps the series library onto cumulative entries, weighted by
// each show's downloaded episode count. Shows without a usable added date or
// without any episode files are skipped and counted.
func SeriesEntries(series []upstream.Series) (entries []Entry, skipped int) {
	for _, s := range series {
		added, ok := parseAdded(s.Added)
		if !ok {
			skipped++
			continue
		}
		if s.Statistics == nil || s.Statistics.EpisodeFileCount <= 0 {
			skipped++
			continue
		}
		entries = append(entries, Entry{Added: added, Weight: float64(s.Statistics.EpisodeFileCount)})
	}
	return entries, skipped
}

// parseAdded parses an item's added timestamp. The managers report an
// all-zeros date for items whose add time was never recorded; those are
// treated as missing.
func parseAdded(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil || t.Year() < 1970 {
		return time.Time{}, false
	}
	return t, true
}

// Report is the outcome of one backfill run: the points to encode plus the
// per-service discrepancy counts.
type Report struct {
	Points        []metrics.HistoricalPoint
	Movies        int
	MoviesSkipped int
	Series        int
	SeriesSkipped int
}

// Run fetches the movie library (and the series library when sonarr is
// non-nil) and builds the cumulative series for both. The movie fetch is
// required; a series fetch failure aborts the run rather than silently
// producing a partial file.
func Run(ctx context.Context, radarr *upstream.Radarr, sonarr *upstream.Sonarr, now time.Time, logger *slog.Logger) (*Report, error) {
	report := &Report{}

	movies, err := radarr.Movies(ctx)
	if err != nil {
		return nil, err
	}
	report.Movies = len(movies)

	movieEntries, skipped := MovieEntries(movies)
	report.MoviesSkipped = skipped
	report.Points = append(report.Points, Build(MovieMetric, movieEntries, now)...)
	logger.Info("backfill_movies",
		"items", len(movies),
		"skipped", skipped,
	)

	if sonarr != nil {
		series, err := sonarr.Series(ctx)
		if err != nil {
			return nil, err
		}
		report.Series = len(series)

		seriesEntries, skipped := SeriesEntries(series)
		report.SeriesSkipped = skipped
		report.Points = append(report.Points, Build(EpisodeMetric, seriesEntries, now)...)
		logger.Info("backfill_series",
			"items", len(series),
			"skipped", skipped,
		)
	}

	return report, nil
}
