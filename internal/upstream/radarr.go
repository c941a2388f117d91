package upstream

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// History event types exposed by the movie manager's v3 API.
const (
	HistoryEventGrabbed  = 1
	HistoryEventImported = 3
)

// Movie is one library entry as returned by the movie manager. Fields the
// normalizer does not read are omitted; optional payload fields use pointers
// or zero values so schema drift degrades gracefully.
type Movie struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Year             int        `json:"year"`
	HasFile          bool       `json:"hasFile"`
	SizeOnDisk       int64      `json:"sizeOnDisk"`
	Genres           []string   `json:"genres"`
	Added            string     `json:"added"`
	QualityProfileID int        `json:"qualityProfileId"`
	MovieFile        *MovieFile `json:"movieFile"`
}

// MovieFile describes the on-disk file backing a downloaded movie.
type MovieFile struct {
	RelativePath string     `json:"relativePath"`
	MediaInfo    *MediaInfo `json:"mediaInfo"`
}

// MediaInfo carries the codec details probed from a media file.
type MediaInfo struct {
	VideoCodec string `json:"videoCodec"`
	AudioCodec string `json:"audioCodec"`
}

// History is a page of library activity events.
type History struct {
	Records []HistoryRecord `json:"records"`
}

// HistoryRecord is one grab or import event.
type HistoryRecord struct {
	MovieID   int64  `json:"movieId"`
	Date      string `json:"date"`
	EventType string `json:"eventType"`
}

// Radarr is the client for the movie collection manager.
type Radarr struct {
	c *client
}

// NewRadarr creates a movie manager client. The API key is passed in the
// X-Api-Key header per the service convention.
func NewRadarr(baseURL, apiKey string, logger *slog.Logger) *Radarr {
	return &Radarr{c: newClient("radarr", baseURL, "X-Api-Key", apiKey, logger)}
}

// Movies fetches the full movie library.
func (r *Radarr) Movies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := r.c.getJSON(ctx, "/api/v3/movie", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Queue fetches the current download queue.
func (r *Radarr) Queue(ctx context.Context) (*Queue, error) {
	var queue Queue
	if err := r.c.getJSON(ctx, "/api/v3/queue", nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// History fetches a page of activity events filtered by event type.
func (r *Radarr) History(ctx context.Context, eventType, pageSize int) (*History, error) {
	query := url.Values{
		"pageSize":  {strconv.Itoa(pageSize)},
		"eventType": {strconv.Itoa(eventType)},
	}
	var history History
	if err := r.c.getJSON(ctx, "/api/v3/history", query, &history); err != nil {
		return nil, err
	}
	return &history, nil
}
