package metrics

import "github.com/joshuarmost/Arr-Scraper/internal/upstream"

// NormalizeSeries maps the series manager's library, a codec sample of
// episodes (the orchestrator samples the first shows to bound API calls), and
// the queue onto the sonarr_* metric set.
func NormalizeSeries(series []upstream.Series, sampledEpisodes []upstream.Episode, queue *upstream.Queue) ObservationSet {
	var set ObservationSet

	var totalEpisodes, totalFiles, cumulative int
	var totalSize int64
	var sizes []float64
	var episodeCounts []int
	genres := make(map[string]int)
	statuses := make(map[string]int)

	for _, show := range series {
		for _, g := range show.Genres {
			genres[g]++
		}
		status := show.Status
		if status == "" {
			status = "unknown"
		}
		statuses[status]++

		if show.Statistics == nil {
			continue
		}
		totalEpisodes += show.Statistics.EpisodeCount
		totalFiles += show.Statistics.EpisodeFileCount
		totalSize += show.Statistics.SizeOnDisk
		if show.Statistics.EpisodeFileCount > 0 && addedDateKnown(show.Added) {
			cumulative += show.Statistics.EpisodeFileCount
		}

		if show.Statistics.SizeOnDisk > 0 {
			sizes = append(sizes, float64(show.Statistics.SizeOnDisk))
		}
		if show.Statistics.EpisodeCount > 0 {
			episodeCounts = append(episodeCounts, show.Statistics.EpisodeCount)
		}
	}

	set.Gauge("sonarr_series_total", "Total series in the library.", float64(len(series)))
	set.Gauge("sonarr_episodes_total", "Total known episodes across all series.", float64(totalEpisodes))
	set.Gauge("sonarr_episodes_downloaded", "Episodes with a file on disk.", float64(totalFiles))
	set.Gauge("sonarr_episodes_missing", "Episodes without a file on disk.", float64(totalEpisodes-totalFiles))
	set.Gauge("sonarr_disk_usage_bytes", "Total bytes used by downloaded episodes.", float64(totalSize))
	// Continues the series the backfill tool reconstructs, so imported
	// history joins the live samples without a discontinuity.
	set.Gauge("sonarr_cumulative_episodes", "Running total of downloaded episodes across series with a known added date.", float64(cumulative))

	if len(sizes) > 0 {
		var sum float64
		for _, s := range sizes {
			sum += s
		}
		set.Gauge("sonarr_avg_series_size_bytes", "Mean on-disk size of a series.", sum/float64(len(sizes)))

		p50, p95, p99 := sizeQuantiles(sizes)
		set.Gauge("sonarr_series_size_p50_bytes", "Series on-disk size 50th percentile.", p50)
		set.Gauge("sonarr_series_size_p95_bytes", "Series on-disk size 95th percentile.", p95)
		set.Gauge("sonarr_series_size_p99_bytes", "Series on-disk size 99th percentile.", p99)
	}
	if len(episodeCounts) > 0 {
		sum := 0
		for _, c := range episodeCounts {
			sum += c
		}
		set.Gauge("sonarr_avg_episodes_per_series", "Mean episode count per series.", float64(sum)/float64(len(episodeCounts)))
	}

	emitBreakdown(&set, "sonarr_genres", "Series per genre.", "genre", genres)
	emitBreakdown(&set, "sonarr_series_by_status", "Series per airing status.", "status", statuses)

	filetypes := make(map[string]int)
	videoCodecs := make(map[string]int)
	audioCodecs := make(map[string]int)
	for _, ep := range sampledEpisodes {
		if ep.EpisodeFile == nil {
			continue
		}
		if ext := fileExt(ep.EpisodeFile.RelativePath); ext != "" {
			filetypes[ext]++
		}
		var video, audio string
		if ep.EpisodeFile.MediaInfo != nil {
			video = ep.EpisodeFile.MediaInfo.VideoCodec
			audio = ep.EpisodeFile.MediaInfo.AudioCodec
		}
		videoCodecs[codecLabel(video)]++
		audioCodecs[codecLabel(audio)]++
	}
	// Codec metrics come from a sample; omit them entirely when the sample
	// had no files rather than emitting misleading zeros.
	if len(filetypes) > 0 {
		emitBreakdown(&set, "sonarr_filetypes", "Sampled episodes per container file type.", "filetype", filetypes)
		emitBreakdown(&set, "sonarr_video_codecs", "Sampled episodes per video codec.", "codec", videoCodecs)
		emitBreakdown(&set, "sonarr_audio_codecs", "Sampled episodes per audio codec.", "codec", audioCodecs)
	}

	if queue != nil {
		normalizeQueue(&set, "sonarr", queue, false)
	}

	return set
}
