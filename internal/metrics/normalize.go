package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/influxdata/tdigest"
)

// codecNames maps encoder aliases onto canonical codec names so one codec
// never splits across label values.
var codecNames = map[string]string{
	"x265": "HEVC",
	"h265": "HEVC",
	"x264": "H.264",
	"h264": "H.264",
}

// codecLabel canonicalizes a probed codec name. Absent codecs become
// "Unknown" rather than an empty label value.
func codecLabel(codec string) string {
	if codec == "" {
		return "Unknown"
	}
	if name, ok := codecNames[codec]; ok {
		return name
	}
	return codec
}

// fileExt returns the lowercased extension of a relative path, or "" when the
// path has none.
func fileExt(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}

// sizeQuantiles computes p50/p95/p99 over a set of byte sizes.
func sizeQuantiles(sizes []float64) (p50, p95, p99 float64) {
	td := tdigest.NewWithCompression(100)
	for _, s := range sizes {
		td.Add(s, 1)
	}
	return td.Quantile(0.50), td.Quantile(0.95), td.Quantile(0.99)
}

// emitBreakdown appends one labeled gauge per distinct label value, in sorted
// label order so the set is emitted consistently across cycles.
func emitBreakdown(set *ObservationSet, name, help, labelKey string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		set.LabeledGauge(name, help, map[string]string{labelKey: k}, float64(counts[k]))
	}
}

// parseUpstreamTime parses the RFC 3339 timestamps the services emit.
func parseUpstreamTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// addedDateKnown reports whether an item's added timestamp is usable for the
// cumulative series. The managers report an all-zeros date for items whose
// add time was never recorded.
func addedDateKnown(raw string) bool {
	t, ok := parseUpstreamTime(raw)
	return ok && t.Year() >= 1970
}
