package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// ContentType is the Content-Type header value for live text exposition.
var ContentType = string(expfmt.FmtText)

// EncodingError signals an internal invariant violation while lowering
// observations to metric families, such as one metric name declared with two
// different kinds. It indicates a programming error in a normalizer, not a
// runtime condition to recover from.
type EncodingError struct {
	msg string
}

func (e *EncodingError) Error() string { return e.msg }

// Families lowers an ObservationSet into Prometheus metric families. Samples
// for the same metric name are grouped into one family, families are sorted
// by name, label pairs are sorted by key, and samples within a family are
// sorted by label values, so the result is fully deterministic.
func Families(set ObservationSet) ([]*dto.MetricFamily, error) {
	byName := make(map[string]*dto.MetricFamily)

	for _, obs := range set {
		mf, ok := byName[obs.Name]
		if !ok {
			mf = &dto.MetricFamily{
				Name: proto.String(obs.Name),
				Help: proto.String(obs.Help),
				Type: familyType(obs.Kind),
			}
			byName[obs.Name] = mf
		} else if mf.GetType() != *familyType(obs.Kind) {
			return nil, &EncodingError{
				msg: fmt.Sprintf("metric %q declared as both %s and %s", obs.Name, mf.GetType(), obs.Kind),
			}
		}

		m := &dto.Metric{Label: labelPairs(obs.Labels)}
		if obs.Kind == KindCounter {
			m.Counter = &dto.Counter{Value: proto.Float64(obs.Value)}
		} else {
			m.Gauge = &dto.Gauge{Value: proto.Float64(obs.Value)}
		}
		mf.Metric = append(mf.Metric, m)
	}

	families := make([]*dto.MetricFamily, 0, len(byName))
	for _, mf := range byName {
		sortSamples(mf.Metric)
		families = append(families, mf)
	}
	SortFamilies(families)

	return families, nil
}

// Encode serializes an ObservationSet as Prometheus text exposition.
// Identical input always produces byte-identical output.
func Encode(w io.Writer, set ObservationSet) error {
	families, err := Families(set)
	if err != nil {
		return err
	}
	return EncodeFamilies(w, families)
}

// EncodeFamilies serializes pre-built metric families as text exposition.
// The caller is responsible for family ordering.
func EncodeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode family %q: %w", mf.GetName(), err)
		}
	}
	return nil
}

// EncodeOpenMetrics serializes historical points as OpenMetrics with explicit
// per-sample timestamps and a trailing "# EOF" marker, the format the TSDB
// block-conversion tool ingests. Points for one metric must already be in
// chronological order; their order is preserved within the family.
func EncodeOpenMetrics(w io.Writer, points []HistoricalPoint) error {
	byName := make(map[string]*dto.MetricFamily)
	order := make([]string, 0)

	for _, p := range points {
		mf, ok := byName[p.Name]
		if !ok {
			mf = &dto.MetricFamily{
				Name: proto.String(p.Name),
				Help: proto.String("Cumulative library total reconstructed from item added dates."),
				Type: dto.MetricType_GAUGE.Enum(),
			}
			byName[p.Name] = mf
			order = append(order, p.Name)
		}

		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:       labelPairs(p.Labels),
			Gauge:       &dto.Gauge{Value: proto.Float64(p.Value)},
			TimestampMs: proto.Int64(p.Timestamp.UnixMilli()),
		})
	}
	sort.Strings(order)

	enc := expfmt.NewEncoder(w, expfmt.FmtOpenMetrics_1_0_0)
	for _, name := range order {
		if err := enc.Encode(byName[name]); err != nil {
			return fmt.Errorf("encode family %q: %w", name, err)
		}
	}

	// Close writes the "# EOF" marker required by OpenMetrics.
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("finalize openmetrics: %w", err)
		}
	}
	return nil
}

// familyType maps an observation kind to the exposition metric type.
func familyType(k Kind) *dto.MetricType {
	if k == KindCounter {
		return dto.MetricType_COUNTER.Enum()
	}
	return dto.MetricType_GAUGE.Enum()
}

// SortFamilies orders metric families by name for deterministic output.
func SortFamilies(families []*dto.MetricFamily) {
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
}

// labelPairs converts a label map into sorted dto label pairs.
func labelPairs(labels map[string]string) []*dto.LabelPair {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]*dto.LabelPair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, &dto.LabelPair{
			Name:  proto.String(k),
			Value: proto.String(labels[k]),
		})
	}
	return pairs
}

// sortSamples orders samples within a family by their label value signature.
func sortSamples(metrics []*dto.Metric) {
	sort.SliceStable(metrics, func(i, j int) bool {
		return labelSignature(metrics[i]) < labelSignature(metrics[j])
	})
}

func labelSignature(m *dto.Metric) string {
	var sb strings.Builder
	for _, lp := range m.GetLabel() {
		sb.WriteString(lp.GetName())
		sb.WriteByte('=')
		sb.WriteString(lp.GetValue())
		sb.WriteByte(',')
	}
	return sb.String()
}
