// Package metrics provides the exporter's metric model, the per-service
// normalizers that map raw upstream payloads onto it, and the Prometheus
// text / OpenMetrics exposition encoders.
package metrics

import "time"

// Kind is the exposition type of a metric.
type Kind int

const (
	// KindGauge is a value that can go up and down between cycles.
	KindGauge Kind = iota
	// KindCounter is a value that only increases over the observed history.
	KindCounter
)

func (k Kind) String() string {
	if k == KindCounter {
		return "counter"
	}
	return "gauge"
}

// Observation is one metric sample produced during a collection cycle:
// metric name, kind, an unordered label set, and the numeric value.
// Observations are produced fresh every cycle and never persisted.
type Observation struct {
	Name   string
	Kind   Kind
	Help   string
	Labels map[string]string
	Value  float64
}

// ObservationSet is the ordered sequence of observations from one collection
// cycle. The encoder groups samples by metric name at serialization time, so
// producers append freely.
type ObservationSet []Observation

// Gauge appends an unlabeled gauge observation.
func (s *ObservationSet) Gauge(name, help string, value float64) {
	*s = append(*s, Observation{Name: name, Kind: KindGauge, Help: help, Value: value})
}

// LabeledGauge appends one gauge observation with the given label set.
func (s *ObservationSet) LabeledGauge(name, help string, labels map[string]string, value float64) {
	*s = append(*s, Observation{Name: name, Kind: KindGauge, Help: help, Labels: labels, Value: value})
}

// Counter appends an unlabeled counter observation.
func (s *ObservationSet) Counter(name, help string, value float64) {
	*s = append(*s, Observation{Name: name, Kind: KindCounter, Help: help, Value: value})
}

// Merge appends all observations from other, preserving order.
func (s *ObservationSet) Merge(other ObservationSet) {
	*s = append(*s, other...)
}

// HistoricalPoint is one backfill sample: a cumulative value for a metric at
// the start of a calendar day. Timestamp is a fixed hour of that date (UTC
// midnight) so chronological ordering matches calendar order.
type HistoricalPoint struct {
	Name      string
	Labels    map[string]string
	Value     float64
	Timestamp time.Time
}
