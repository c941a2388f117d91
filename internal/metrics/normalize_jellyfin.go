package metrics

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// topEntries caps the popularity breakdowns to bound label cardinality.
const topEntries = 10

// StreamingStats bundles the streaming server payloads one collection cycle
// managed to fetch. Nil slices mean the endpoint was unavailable (the
// playback-statistics plugin is optional) and its metrics are omitted.
type StreamingStats struct {
	Sessions  []upstream.Session
	Users     []upstream.User
	Activity  []upstream.UserActivity
	TopMovies []upstream.ReportEntry
	TopShows  []upstream.ReportEntry
	Playback  *upstream.CustomQueryResult
}

// NormalizeStreaming maps the streaming server payloads onto the jellyfin_*
// metric set.
func NormalizeStreaming(stats StreamingStats) ObservationSet {
	var set ObservationSet

	activeStreams := 0
	streamTypes := make(map[string]int)
	for _, s := range stats.Sessions {
		if s.NowPlayingItem == nil {
			continue
		}
		activeStreams++
		mediaType := s.NowPlayingItem.Type
		if mediaType == "" {
			mediaType = "Unknown"
		}
		streamTypes[mediaType]++
	}
	set.Gauge("jellyfin_active_streams", "Sessions currently playing media.", float64(activeStreams))
	emitBreakdown(&set, "jellyfin_streams_by_type", "Active streams per media type.", "type", streamTypes)

	if stats.Users != nil {
		set.Gauge("jellyfin_users_total", "Accounts on the server.", float64(len(stats.Users)))
	}

	if stats.Playback != nil {
		normalizePlayback(&set, stats.Playback)
	}

	if stats.Activity != nil {
		playCounts := make(map[string]int)
		for _, a := range stats.Activity {
			name := a.UserName
			if name == "" {
				name = "Unknown"
			}
			playCounts[name] += a.TotalCount
		}
		emitBreakdown(&set, "jellyfin_user_play_counts", "Plays per user over the last 30 days.", "user", playCounts)
	}

	emitTop(&set, "jellyfin_top_movies", "Most played movies over the last 30 days.", "title", stats.TopMovies)
	emitTop(&set, "jellyfin_top_shows", "Most played shows over the last 30 days.", "title", stats.TopShows)

	return set
}

// normalizePlayback derives method and hour-of-day breakdowns from the
// playback-statistics plugin's raw activity rows.
func normalizePlayback(set *ObservationSet, playback *upstream.CustomQueryResult) {
	methodIdx := -1
	createdIdx := -1
	for i, col := range playback.Columns {
		switch col {
		case "PlaybackMethod":
			methodIdx = i
		case "DateCreated":
			createdIdx = i
		}
	}

	methods := make(map[string]int)
	hours := make(map[string]int)
	for _, row := range playback.Results {
		if methodIdx >= 0 && methodIdx < len(row) {
			method, ok := cellText(row[methodIdx])
			if !ok || method == "" {
				method = "Unknown"
			}
			methods[method]++
		}
		if createdIdx >= 0 && createdIdx < len(row) {
			// Rows carry "YYYY-MM-DD HH:MM:SS"; only the hour matters here.
			created, ok := cellText(row[createdIdx])
			if !ok {
				continue
			}
			if t, err := time.Parse("2006-01-02 15", truncate(created, 13)); err == nil {
				hours[strconv.Itoa(t.Hour())]++
			}
		}
	}

	set.Gauge("jellyfin_playback_count_30d", "Playback events over the last 30 days.", float64(len(playback.Results)))
	emitBreakdown(set, "jellyfin_playback_methods", "Playback events per playback method.", "method", methods)
	emitBreakdown(set, "jellyfin_playback_by_hour", "Playback events per hour of day.", "hour", hours)
}

// emitTop emits the highest-count report entries as labeled gauges, largest
// first, ties broken by label for determinism.
func emitTop(set *ObservationSet, name, help, labelKey string, entries []upstream.ReportEntry) {
	if len(entries) == 0 {
		return
	}

	// Merge duplicate labels so the exposition never carries two samples for
	// the same series.
	merged := make(map[string]int)
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = "Unknown"
		}
		merged[label] += e.Count
	}

	sorted := make([]upstream.ReportEntry, 0, len(merged))
	for label, count := range merged {
		sorted = append(sorted, upstream.ReportEntry{Label: label, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Label < sorted[j].Label
	})

	if len(sorted) > topEntries {
		sorted = sorted[:topEntries]
	}
	for _, e := range sorted {
		set.LabeledGauge(name, help, map[string]string{labelKey: e.Label}, float64(e.Count))
	}
}

// cellText decodes one raw query cell as text. The plugin mixes strings and
// numbers across columns, so numbers are rendered with their JSON spelling;
// anything else reports ok=false and the caller skips or buckets the cell.
func cellText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
