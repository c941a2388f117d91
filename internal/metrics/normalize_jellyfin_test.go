package metrics

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// rawCells builds one raw query row from mixed string/number cells.
func rawCells(t *testing.T, cells ...any) []json.RawMessage {
	t.Helper()
	row := make([]json.RawMessage, 0, len(cells))
	for _, c := range cells {
		b, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal cell %v: %v", c, err)
		}
		row = append(row, json.RawMessage(b))
	}
	return row
}

func TestNormalizeStreaming_Sessions(t *testing.T) {
	stats := StreamingStats{
		Sessions: []upstream.Session{
			{ID: "a", NowPlayingItem: &upstream.NowPlayingItem{Type: "Movie"}},
			{ID: "b", NowPlayingItem: &upstream.NowPlayingItem{Type: "Episode"}},
			{ID: "c", NowPlayingItem: &upstream.NowPlayingItem{Type: "Episode"}},
			{ID: "d"}, // idle session
		},
	}
	set := NormalizeStreaming(stats)

	if got := mustValue(t, set, "jellyfin_active_streams", nil); got != 3 {
		t.Errorf("jellyfin_active_streams = %v, want 3", got)
	}
	if got := mustValue(t, set, "jellyfin_streams_by_type", map[string]string{"type": "Episode"}); got != 2 {
		t.Errorf("streams_by_type[Episode] = %v, want 2", got)
	}
	if got := mustValue(t, set, "jellyfin_streams_by_type", map[string]string{"type": "Movie"}); got != 1 {
		t.Errorf("streams_by_type[Movie] = %v, want 1", got)
	}
}

func TestNormalizeStreaming_NoSessions(t *testing.T) {
	set := NormalizeStreaming(StreamingStats{})

	// Zero streams is a real reading, not missing data.
	if got := mustValue(t, set, "jellyfin_active_streams", nil); got != 0 {
		t.Errorf("jellyfin_active_streams = %v, want 0", got)
	}
	if _, ok := findValue(set, "jellyfin_users_total", nil); ok {
		t.Error("jellyfin_users_total should be omitted when the users payload is absent")
	}
	if _, ok := findValue(set, "jellyfin_playback_count_30d", nil); ok {
		t.Error("plugin metrics should be omitted when the plugin payload is absent")
	}
}

func TestNormalizeStreaming_Users(t *testing.T) {
	stats := StreamingStats{
		Users: []upstream.User{{ID: "u1", Name: "alice"}, {ID: "u2", Name: "bob"}},
	}
	set := NormalizeStreaming(stats)
	if got := mustValue(t, set, "jellyfin_users_total", nil); got != 2 {
		t.Errorf("jellyfin_users_total = %v, want 2", got)
	}
}

func TestNormalizeStreaming_Activity(t *testing.T) {
	stats := StreamingStats{
		Activity: []upstream.UserActivity{
			{UserName: "alice", TotalCount: 12},
			{UserName: "bob", TotalCount: 3},
			{UserName: "", TotalCount: 2},
		},
	}
	set := NormalizeStreaming(stats)

	if got := mustValue(t, set, "jellyfin_user_play_counts", map[string]string{"user": "alice"}); got != 12 {
		t.Errorf("user_play_counts[alice] = %v, want 12", got)
	}
	if got := mustValue(t, set, "jellyfin_user_play_counts", map[string]string{"user": "Unknown"}); got != 2 {
		t.Errorf("user_play_counts[Unknown] = %v, want 2", got)
	}
}

func TestNormalizeStreaming_Playback(t *testing.T) {
	stats := StreamingStats{
		Playback: &upstream.CustomQueryResult{
			Columns: []string{"rowid", "DateCreated", "UserId", "PlaybackMethod"},
			Results: [][]json.RawMessage{
				rawCells(t, 1, "2026-08-30 21:14:03", "u1", "DirectPlay"),
				rawCells(t, 2, "2026-08-30 21:59:59", "u1", "DirectPlay"),
				rawCells(t, 3, "2026-08-31 09:05:00", "u2", "Transcode"),
				rawCells(t, 4, "garbage-date", "u2", ""),
			},
		},
	}
	set := NormalizeStreaming(stats)

	if got := mustValue(t, set, "jellyfin_playback_count_30d", nil); got != 4 {
		t.Errorf("jellyfin_playback_count_30d = %v, want 4", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_methods", map[string]string{"method": "DirectPlay"}); got != 2 {
		t.Errorf("playback_methods[DirectPlay] = %v, want 2", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_methods", map[string]string{"method": "Unknown"}); got != 1 {
		t.Errorf("playback_methods[Unknown] = %v, want 1", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_by_hour", map[string]string{"hour": "21"}); got != 2 {
		t.Errorf("playback_by_hour[21] = %v, want 2", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_by_hour", map[string]string{"hour": "9"}); got != 1 {
		t.Errorf("playback_by_hour[9] = %v, want 1", got)
	}
	// The unparseable row contributes to the total but no hour bucket.
	total := 0.0
	for _, obs := range set {
		if obs.Name == "jellyfin_playback_by_hour" {
			total += obs.Value
		}
	}
	if total != 3 {
		t.Errorf("hour buckets sum to %v, want 3", total)
	}
}

func TestNormalizeStreaming_PlaybackMixedCellTypes(t *testing.T) {
	// Some plugin columns come back as bare numbers or nulls. A bad cell
	// degrades that cell, never the whole payload.
	stats := StreamingStats{
		Playback: &upstream.CustomQueryResult{
			Columns: []string{"rowid", "DateCreated", "UserId", "PlaybackMethod"},
			Results: [][]json.RawMessage{
				rawCells(t, 1, "2026-08-30 21:14:03", "u1", "DirectPlay"),
				{json.RawMessage(`2`), json.RawMessage(`null`), json.RawMessage(`"u2"`), json.RawMessage(`null`)},
				rawCells(t, 3, "2026-08-30 08:00:00", "u3", 42),
			},
		},
	}
	set := NormalizeStreaming(stats)

	if got := mustValue(t, set, "jellyfin_playback_count_30d", nil); got != 3 {
		t.Errorf("jellyfin_playback_count_30d = %v, want 3", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_methods", map[string]string{"method": "DirectPlay"}); got != 1 {
		t.Errorf("playback_methods[DirectPlay] = %v, want 1", got)
	}
	// The null method falls into the Unknown bucket; the numeric one keeps
	// its JSON spelling.
	if got := mustValue(t, set, "jellyfin_playback_methods", map[string]string{"method": "Unknown"}); got != 1 {
		t.Errorf("playback_methods[Unknown] = %v, want 1", got)
	}
	if got := mustValue(t, set, "jellyfin_playback_methods", map[string]string{"method": "42"}); got != 1 {
		t.Errorf("playback_methods[42] = %v, want 1", got)
	}
	// The null date contributes to no hour bucket.
	total := 0.0
	for _, obs := range set {
		if obs.Name == "jellyfin_playback_by_hour" {
			total += obs.Value
		}
	}
	if total != 2 {
		t.Errorf("hour buckets sum to %v, want 2", total)
	}
}

func TestEmitTop(t *testing.T) {
	entries := make([]upstream.ReportEntry, 0, 15)
	for i := 1; i <= 15; i++ {
		entries = append(entries, upstream.ReportEntry{Label: fmt.Sprintf("Title %02d", i), Count: i})
	}
	set := NormalizeStreaming(StreamingStats{TopMovies: entries})

	var got []Observation
	for _, obs := range set {
		if obs.Name == "jellyfin_top_movies" {
			got = append(got, obs)
		}
	}
	if len(got) != 10 {
		t.Fatalf("len(top movies) = %d, want 10", len(got))
	}
	// Largest first.
	if got[0].Labels["title"] != "Title 15" || got[0].Value != 15 {
		t.Errorf("top entry = %+v, want Title 15 / 15", got[0])
	}
	if got[9].Labels["title"] != "Title 06" || got[9].Value != 6 {
		t.Errorf("last entry = %+v, want Title 06 / 6", got[9])
	}
}

func TestEmitTop_DuplicateLabels(t *testing.T) {
	entries := []upstream.ReportEntry{
		{Label: "Same Show", Count: 3},
		{Label: "Same Show", Count: 4},
		{Label: "Other", Count: 5},
	}
	set := NormalizeStreaming(StreamingStats{TopShows: entries})

	count := 0
	for _, obs := range set {
		if obs.Name == "jellyfin_top_shows" && obs.Labels["title"] == "Same Show" {
			count++
			if obs.Value != 7 {
				t.Errorf("merged count = %v, want 7", obs.Value)
			}
		}
	}
	if count != 1 {
		t.Errorf("duplicate label emitted %d times, want 1", count)
	}
}
