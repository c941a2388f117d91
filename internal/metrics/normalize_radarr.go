package metrics

import (
	"fmt"
	"time"

	"github.com/joshuarmost/Arr-Scraper/internal/upstream"
)

// importWindowMax discards grab-to-import durations longer than a week; those
// are stale grabs re-imported much later, not download time.
const importWindowMax = 7 * 24 * time.Hour

// NormalizeMovies maps the movie manager's library, queue, and history
// payloads onto the radarr_* metric set. Queue and history payloads are
// optional; nil simply omits their metrics.
func NormalizeMovies(movies []upstream.Movie, queue *upstream.Queue, grabbed, imported *upstream.History) ObservationSet {
	var set ObservationSet

	downloaded := 0
	cumulative := 0
	var totalSize int64
	var sizes []float64
	genres := make(map[string]int)
	years := make(map[string]int)
	filetypes := make(map[string]int)
	videoCodecs := make(map[string]int)
	audioCodecs := make(map[string]int)
	profiles := make(map[string]int)

	for _, m := range movies {
		for _, g := range m.Genres {
			genres[g]++
		}
		if m.Year != 0 {
			years[fmt.Sprintf("%d", m.Year)]++
		}
		if m.QualityProfileID != 0 {
			profiles[fmt.Sprintf("profile_%d", m.QualityProfileID)]++
		}
		if addedDateKnown(m.Added) {
			cumulative++
		}

		if !m.HasFile {
			continue
		}
		downloaded++
		totalSize += m.SizeOnDisk
		sizes = append(sizes, float64(m.SizeOnDisk))

		if m.MovieFile == nil {
			continue
		}
		if ext := fileExt(m.MovieFile.RelativePath); ext != "" {
			filetypes[ext]++
		}
		var video, audio string
		if m.MovieFile.MediaInfo != nil {
			video = m.MovieFile.MediaInfo.VideoCodec
			audio = m.MovieFile.MediaInfo.AudioCodec
		}
		videoCodecs[codecLabel(video)]++
		audioCodecs[codecLabel(audio)]++
	}

	set.Gauge("radarr_movies_total", "Total movies in the library.", float64(len(movies)))
	set.Gauge("radarr_movies_downloaded", "Movies with a file on disk.", float64(downloaded))
	set.Gauge("radarr_movies_missing", "Movies without a file on disk.", float64(len(movies)-downloaded))
	set.Gauge("radarr_disk_usage_bytes", "Total bytes used by downloaded movies.", float64(totalSize))
	// Continues the series the backfill tool reconstructs, so imported
	// history joins the live samples without a discontinuity.
	set.Gauge("radarr_cumulative_movies", "Running total of movies with a known added date.", float64(cumulative))

	if downloaded > 0 {
		set.Gauge("radarr_avg_movie_size_bytes", "Mean size of a downloaded movie.", float64(totalSize)/float64(downloaded))

		p50, p95, p99 := sizeQuantiles(sizes)
		set.Gauge("radarr_movie_size_p50_bytes", "Downloaded movie size 50th percentile.", p50)
		set.Gauge("radarr_movie_size_p95_bytes", "Downloaded movie size 95th percentile.", p95)
		set.Gauge("radarr_movie_size_p99_bytes", "Downloaded movie size 99th percentile.", p99)
	}

	emitBreakdown(&set, "radarr_genres", "Movies per genre.", "genre", genres)
	emitBreakdown(&set, "radarr_movies_by_year", "Movies per release year.", "year", years)
	emitBreakdown(&set, "radarr_filetypes", "Downloaded movies per container file type.", "filetype", filetypes)
	emitBreakdown(&set, "radarr_video_codecs", "Downloaded movies per video codec.", "codec", videoCodecs)
	emitBreakdown(&set, "radarr_audio_codecs", "Downloaded movies per audio codec.", "codec", audioCodecs)
	emitBreakdown(&set, "radarr_quality_profiles", "Movies per quality profile.", "profile", profiles)

	if queue != nil {
		normalizeQueue(&set, "radarr", queue, true)
	}

	if avg, ok := avgImportTime(grabbed, imported); ok {
		set.Gauge("radarr_avg_import_time_seconds", "Mean time from grab to import.", avg)
	}

	return set
}

// normalizeQueue emits the shared queue depth metrics for one service, and
// optionally the mean estimated download time of active downloads.
func normalizeQueue(set *ObservationSet, prefix string, queue *upstream.Queue, withDownloadTime bool) {
	downloading := 0
	var durations []float64

	for _, rec := range queue.Records {
		if rec.Status != "downloading" {
			continue
		}
		downloading++

		if !withDownloadTime {
			continue
		}
		added, okAdded := parseUpstreamTime(rec.Added)
		estimated, okEst := parseUpstreamTime(rec.EstimatedCompletionTime)
		if okAdded && okEst {
			if d := estimated.Sub(added).Seconds(); d > 0 {
				durations = append(durations, d)
			}
		}
	}

	set.Gauge(prefix+"_queue_total", "Items in the download queue.", float64(len(queue.Records)))
	set.Gauge(prefix+"_queue_downloading", "Queue items actively downloading.", float64(downloading))

	if len(durations) > 0 {
		var sum float64
		for _, d := range durations {
			sum += d
		}
		set.Gauge(prefix+"_avg_download_time_seconds", "Mean estimated download time of active downloads.", sum/float64(len(durations)))
	}
}

// avgImportTime joins grab events to import events by movie and returns the
// mean grab-to-import duration in seconds.
func avgImportTime(grabbed, imported *upstream.History) (float64, bool) {
	if grabbed == nil || imported == nil {
		return 0, false
	}

	grabTimes := make(map[int64]time.Time)
	for _, rec := range grabbed.Records {
		if rec.EventType != "grabbed" {
			continue
		}
		if t, ok := parseUpstreamTime(rec.Date); ok {
			grabTimes[rec.MovieID] = t
		}
	}

	var sum float64
	count := 0
	for _, rec := range imported.Records {
		grabTime, ok := grabTimes[rec.MovieID]
		if !ok {
			continue
		}
		importTime, ok := parseUpstreamTime(rec.Date)
		if !ok {
			continue
		}
		d := importTime.Sub(grabTime)
		if d > 0 && d < importWindowMax {
			sum += d.Seconds()
			count++
		}
	}

	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
