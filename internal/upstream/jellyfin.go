package upstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
)

// Session is one connected client session on the streaming server.
type Session struct {
	ID             string          `json:"Id"`
	NowPlayingItem *NowPlayingItem `json:"NowPlayingItem"`
}

// NowPlayingItem describes the media an active session is streaming.
type NowPlayingItem struct {
	Type string `json:"Type"`
}

// User is one account on the streaming server.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// UserActivity is one row of the playback-statistics plugin's per-user
// activity report.
type UserActivity struct {
	UserName   string `json:"user_name"`
	TotalCount int    `json:"total_count"`
}

// ReportEntry is one row of the plugin's movie/show popularity reports.
type ReportEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CustomQueryResult is the playback-statistics plugin's raw query response.
// "colums" matches the plugin's misspelled field name. Cells are kept raw
// because the plugin returns a mix of strings and numbers depending on the
// column; callers decode each cell as needed.
type CustomQueryResult struct {
	Columns []string            `json:"colums"`
	Results [][]json.RawMessage `json:"results"`
}

// customQueryRequest is the body for the plugin's raw query endpoint.
type customQueryRequest struct {
	CustomQueryString string `json:"CustomQueryString"`
	ReplaceUserID     bool   `json:"ReplaceUserId"`
}

// playbackActivityQuery pulls the last 30 days of playback rows from the
// playback-statistics plugin's activity table.
const playbackActivityQuery = `SELECT ROWID, * FROM PlaybackActivity WHERE DateCreated >= datetime('now', '-30 days') ORDER BY DateCreated DESC`

// Jellyfin is the client for the media streaming server.
type Jellyfin struct {
	c *client
}

// NewJellyfin creates a streaming server client. The API key is passed in the
// X-Emby-Token header per the service convention.
func NewJellyfin(baseURL, apiKey string, logger *slog.Logger) *Jellyfin {
	return &Jellyfin{c: newClient("jellyfin", baseURL, "X-Emby-Token", apiKey, logger)}
}

// Sessions fetches all connected sessions, streaming or idle.
func (j *Jellyfin) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := j.c.getJSON(ctx, "/Sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Users fetches all accounts.
func (j *Jellyfin) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := j.c.getJSON(ctx, "/Users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserActivity fetches the plugin's per-user play counts over the given
// window. Requires the playback-statistics plugin.
func (j *Jellyfin) UserActivity(ctx context.Context, days int) ([]UserActivity, error) {
	query := url.Values{
		"days":           {strconv.Itoa(days)},
		"timezoneOffset": {"0"},
	}
	var activity []UserActivity
	if err := j.c.getJSON(ctx, "/user_usage_stats/user_activity", query, &activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// MoviesReport fetches the plugin's most-played movies for one user.
func (j *Jellyfin) MoviesReport(ctx context.Context, days int, userID string) ([]ReportEntry, error) {
	return j.report(ctx, "/user_usage_stats/MoviesReport", days, userID)
}

// TvShowsReport fetches the plugin's most-played shows for one user.
func (j *Jellyfin) TvShowsReport(ctx context.Context, days int, userID string) ([]ReportEntry, error) {
	return j.report(ctx, "/user_usage_stats/GetTvShowsReport", days, userID)
}

func (j *Jellyfin) report(ctx context.Context, path string, days int, userID string) ([]ReportEntry, error) {
	query := url.Values{
		"days":           {strconv.Itoa(days)},
		"UserId":         {userID},
		"timezoneOffset": {"0"},
	}
	var entries []ReportEntry
	if err := j.c.getJSON(ctx, path, query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PlaybackActivity fetches raw playback rows from the plugin for method and
// hour-of-day breakdowns.
func (j *Jellyfin) PlaybackActivity(ctx context.Context) (*CustomQueryResult, error) {
	body := customQueryRequest{
		CustomQueryString: playbackActivityQuery,
		ReplaceUserID:     true,
	}
	var result CustomQueryResult
	if err := j.c.postJSON(ctx, "/user_usage_stats/submit_custom_query", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
