package orchestrator

import (
	"context"
	"log/slog"

	"github.com/joshuarmost/Arr-Scraper/internal/config"
	"github.com/joshuarmost/Arr-Scraper/internal/metrics"
	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// Episode codec metrics come from a bounded sample of the library to keep the
// per-scrape API call count flat regardless of library size.
const (
	sampleSeriesLimit     = 10
	sampleEpisodesPerShow = 5
	activityWindowDays    = 30
	historyPageSize       = 100
)

// Source is one upstream service's fetch+normalize capability. Collect
// returns the service's observations for one cycle, or an error when the
// service's primary payload could not be fetched.
type Source interface {
	Kind() string
	Collect(ctx context.Context) (metrics.ObservationSet, error)
}

// BuildSources creates one source per enabled service, in the fixed order
// that keeps metric-name ordering stable across cycles. Disabled services get
// no source and are therefore never contacted.
func BuildSources(cfg *config.Config, logger *slog.Logger) []Source {
	var sources []Source
	if cfg.Radarr.Enabled() {
		sources = append(sources, NewRadarrSource(cfg.Radarr.URL, cfg.Radarr.APIKey, logger))
	}
	if cfg.Sonarr.Enabled() {
		sources = append(sources, NewSonarrSource(cfg.Sonarr.URL, cfg.Sonarr.APIKey, logger))
	}
	if cfg.Jellyfin.Enabled() {
		sources = append(sources, NewJellyfinSource(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, logger))
	}
	return sources
}

// RadarrSource collects the movie manager's metrics.
type RadarrSource struct {
	client *upstream.Radarr
	logger *slog.Logger
}

func NewRadarrSource(baseURL, apiKey string, logger *slog.Logger) *RadarrSource {
	return &RadarrSource{
		client: upstream.NewRadarr(baseURL, apiKey, logger),
		logger: logger,
	}
}

func (s *RadarrSource) Kind() string { return "radarr" }

// Collect fetches the movie library, queue, and history. The library is the
// primary payload; queue and history failures only drop their own metrics.
func (s *RadarrSource) Collect(ctx context.Context) (metrics.ObservationSet, error) {
	movies, err := s.client.Movies(ctx)
	if err != nil {
		return nil, err
	}

	queue, err := s.client.Queue(ctx)
	if err != nil {
		s.warnPartial("queue", err)
		queue = nil
	}

	grabbed, err := s.client.History(ctx, upstream.HistoryEventGrabbed, historyPageSize)
	if err != nil {
		s.warnPartial("history", err)
		grabbed = nil
	}
	var imported *upstream.History
	if grabbed != nil {
		imported, err = s.client.History(ctx, upstream.HistoryEventImported, historyPageSize)
		if err != nil {
			s.warnPartial("history", err)
			imported = nil
		}
	}

	return metrics.NormalizeMovies(movies, queue, grabbed, imported), nil
}

func (s *RadarrSource) warnPartial(endpoint string, err error) {
	s.logger.Warn("partial_collect",
		"service", s.Kind(),
		"endpoint", endpoint,
		"error_kind", upstream.ErrorKind(err),
		"error", err,
	)
}

// SonarrSource collects the series manager's metrics.
type SonarrSource struct {
	client *upstream.Sonarr
	logger *slog.Logger
}

func NewSonarrSource(baseURL, apiKey string, logger *slog.Logger) *SonarrSource {
	return &SonarrSource{
		client: upstream.NewSonarr(baseURL, apiKey, logger),
		logger: logger,
	}
}

func (s *SonarrSource) Kind() string { return "sonarr" }

// Collect fetches the series library, a bounded episode sample for codec
// breakdowns, and the queue.
func (s *SonarrSource) Collect(ctx context.Context) (metrics.ObservationSet, error) {
	series, err := s.client.Series(ctx)
	if err != nil {
		return nil, err
	}

	var sampled []upstream.Episode
	for i, show := range series {
		if i >= sampleSeriesLimit {
			break
		}
		episodes, err := s.client.Episodes(ctx, show.ID)
		if err != nil {
			s.logger.Warn("partial_collect",
				"service", s.Kind(),
				"endpoint", "episode",
				"series_id", show.ID,
				"error_kind", upstream.ErrorKind(err),
				"error", err,
			)
			continue
		}
		if len(episodes) > sampleEpisodesPerShow {
			episodes = episodes[:sampleEpisodesPerShow]
		}
		sampled = append(sampled, episodes...)
	}

	queue, err := s.client.Queue(ctx)
	if err != nil {
		s.logger.Warn("partial_collect",
			"service", s.Kind(),
			"endpoint", "queue",
			"error_kind", upstream.ErrorKind(err),
			"error", err,
		)
		queue = nil
	}

	return metrics.NormalizeSeries(series, sampled, queue), nil
}

// JellyfinSource collects the streaming server's metrics.
type JellyfinSource struct {
	client *upstream.Jellyfin
	logger *slog.Logger
}

func NewJellyfinSource(baseURL, apiKey string, logger *slog.Logger) *JellyfinSource {
	return &JellyfinSource{
		client: upstream.NewJellyfin(baseURL, apiKey, logger),
		logger: logger,
	}
}

func (s *JellyfinSource) Kind() string { return "jellyfin" }

// Collect fetches sessions and users, plus the playback-statistics plugin
// reports when the plugin is installed. Sessions are the primary payload;
// everything else degrades to omitted metrics.
func (s *JellyfinSource) Collect(ctx context.Context) (metrics.ObservationSet, error) {
	sessions, err := s.client.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	stats := metrics.StreamingStats{Sessions: sessions}

	users, err := s.client.Users(ctx)
	if err != nil {
		s.warnPlugin("users", err)
	} else {
		stats.Users = users
	}

	activity, err := s.client.UserActivity(ctx, activityWindowDays)
	if err != nil {
		s.warnPlugin("user_activity", err)
	} else {
		stats.Activity = activity
	}

	playback, err := s.client.PlaybackActivity(ctx)
	if err != nil {
		s.warnPlugin("playback_activity", err)
	} else {
		stats.Playback = playback
	}

	// The popularity reports are per-user; the first account's view is
	// representative enough for a dashboard.
	if len(stats.Users) > 0 {
		userID := stats.Users[0].ID
		if topMovies, err := s.client.MoviesReport(ctx, activityWindowDays, userID); err != nil {
			s.warnPlugin("movies_report", err)
		} else {
			stats.TopMovies = topMovies
		}
		if topShows, err := s.client.TvShowsReport(ctx, activityWindowDays, userID); err != nil {
			s.warnPlugin("shows_report", err)
		} else {
			stats.TopShows = topShows
		}
	}

	return metrics.NormalizeStreaming(stats), nil
}

func (s *JellyfinSource) warnPlugin(endpoint string, err error) {
	s.logger.Warn("partial_collect",
		"service", s.Kind(),
		"endpoint", endpoint,
		"error_kind", upstream.ErrorKind(err),
		"error", err,
	)
}
