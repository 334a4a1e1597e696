package metrics

import (
	"time"
)

// Relay outcomes recorded per webhook
const (
	OutcomeRelayed       = "relayed"        // exchange answered, status passed through
	OutcomeMasked        = "masked"         // exchange answered >= 500, relayed as 200
	OutcomeExchangeError = "exchange_error" // exchange answered with a non-zero code
	OutcomeRejected      = "rejected"       // signal failed validation
	OutcomeUpstreamError = "upstream_error" // no usable exchange answer
)

// CounterEntry represents a counter data point
type CounterEntry struct {
	Name   string
	Labels string // rendered {k="v",...}, empty when unlabelled
	Value  int64
}

// HistogramEntry represents one labelled histogram series
type HistogramEntry struct {
	Name    string
	Labels  string
	Buckets []float64
	Counts  []int64 // cumulative, aligned with Buckets
	Sum     float64
	Count   int64
}

// MetricSnapshot represents a point-in-time view of all metrics
type MetricSnapshot struct {
	Counters   []CounterEntry
	Histograms []HistogramEntry
	Timestamp  time.Time
}

// Default histogram buckets for latency measurements (in seconds)
var DefaultLatencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
}

type seriesKey struct {
	name   string
	labels string
}

type histogram struct {
	counts []int64 // per bucket, not cumulative
	sum    float64
	count  int64
}
