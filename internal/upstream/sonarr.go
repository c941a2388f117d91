package upstream

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// Series is one show as returned by the series manager.
type Series struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Status     string            `json:"status"`
	Genres     []string          `json:"genres"`
	Added      string            `json:"added"`
	Statistics *SeriesStatistics `json:"statistics"`
}

// SeriesStatistics aggregates the per-show episode and disk accounting.
type SeriesStatistics struct {
	EpisodeCount     int   `json:"episodeCount"`
	EpisodeFileCount int   `json:"episodeFileCount"`
	SizeOnDisk       int64 `json:"sizeOnDisk"`
}

// Episode is one episode of a show, with its file when downloaded.
type Episode struct {
	ID          int64        `json:"id"`
	EpisodeFile *EpisodeFile `json:"episodeFile"`
}

// EpisodeFile describes the on-disk file backing a downloaded episode.
type EpisodeFile struct {
	RelativePath string     `json:"relativePath"`
	MediaInfo    *MediaInfo `json:"mediaInfo"`
}

// Sonarr is the client for the TV series manager.
type Sonarr struct {
	c *client
}

// NewSonarr creates a series manager client. The API key is passed in the
// X-Api-Key header per the service convention.
func NewSonarr(baseURL, apiKey string, logger *slog.Logger) *Sonarr {
	return &Sonarr{c: newClient("sonarr", baseURL, "X-Api-Key", apiKey, logger)}
}

// Series fetches the full series library.
func (s *Sonarr) Series(ctx context.Context) ([]Series, error) {
	var series []Series
	if err := s.c.getJSON(ctx, "/api/v3/series", nil, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Episodes fetches the episode list for one show.
func (s *Sonarr) Episodes(ctx context.Context, seriesID int64) ([]Episode, error) {
	query := url.Values{
		"seriesId": {strconv.FormatInt(seriesID, 10)},
	}
	var episodes []Episode
	if err := s.c.getJSON(ctx, "/api/v3/episode", query, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Queue fetches the current download queue.
func (s *Sonarr) Queue(ctx context.Context) (*Queue, error) {
	var queue Queue
	if err := s.c.getJSON(ctx, "/api/v3/queue", nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}
