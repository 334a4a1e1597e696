package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Collector handles Prometheus metrics collection
type Collector struct {
	counters   map[seriesKey]int64
	histograms map[seriesKey]*histogram

	mutex sync.RWMutex

	histogramBuckets []float64
	startTime        time.Time
}

// NewCollector creates a new metrics collector with default latency buckets
func NewCollector() *Collector {
	return NewCollectorWithBuckets(DefaultLatencyBuckets)
}

// NewCollectorWithBuckets creates a new metrics collector with custom histogram buckets
func NewCollectorWithBuckets(buckets []float64) *Collector {
	sorted := append([]float64(nil), buckets...)
	sort.Float64s(sorted)

	return &Collector{
		counters:         make(map[seriesKey]int64),
		histograms:       make(map[seriesKey]*histogram),
		histogramBuckets: sorted,
		startTime:        time.Now(),
	}
}

// RecordHTTPRequest increments the HTTP request counter
func (c *Collector) RecordHTTPRequest(method, path string, status int) {
	c.inc("http_requests_total", "method", method, "path", path, "status", strconv.Itoa(status))
}

// RecordHTTPDuration records HTTP request duration
func (c *Collector) RecordHTTPDuration(method, endpoint string, duration float64) {
	c.observe("http_request_duration_seconds", duration, "method", method, "endpoint", endpoint)
}

// RecordRelay counts one webhook by order side, order type and outcome
func (c *Collector) RecordRelay(side, orderType, outcome string) {
	c.inc("relay_signals_total", "side", side, "type", orderType, "outcome", outcome)
}

// RecordExchangeResponse records the exchange HTTP status and round-trip latency
func (c *Collector) RecordExchangeResponse(status int, latency float64) {
	c.inc("exchange_responses_total", "status", strconv.Itoa(status))
	c.observe("exchange_latency_seconds", latency)
}

// GetSnapshot returns a point-in-time view of all metrics, sorted by name and labels
func (c *Collector) GetSnapshot() MetricSnapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	counters := make([]CounterEntry, 0, len(c.counters))
	for key, value := range c.counters {
		counters = append(counters, CounterEntry{Name: key.name, Labels: key.labels, Value: value})
	}
	sort.Slice(counters, func(i, j int) bool {
		if counters[i].Name != counters[j].Name {
			return counters[i].Name < counters[j].Name
		}
		return counters[i].Labels < counters[j].Labels
	})

	histograms := make([]HistogramEntry, 0, len(c.histograms))
	for key, h := range c.histograms {
		cumulative := make([]int64, len(h.counts))
		var running int64
		for i, n := range h.counts {
			running += n
			cumulative[i] = running
		}
		histograms = append(histograms, HistogramEntry{
			Name:    key.name,
			Labels:  key.labels,
			Buckets: c.histogramBuckets,
			Counts:  cumulative,
			Sum:     h.sum,
			Count:   h.count,
		})
	}
	sort.Slice(histograms, func(i, j int) bool {
		if histograms[i].Name != histograms[j].Name {
			return histograms[i].Name < histograms[j].Name
		}
		return histograms[i].Labels < histograms[j].Labels
	})

	return MetricSnapshot{
		Counters:   counters,
		Histograms: histograms,
		Timestamp:  time.Now(),
	}
}

// Reset clears all metrics
func (c *Collector) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.counters = make(map[seriesKey]int64)
	c.histograms = make(map[seriesKey]*histogram)
	c.startTime = time.Now()
}

// Collect returns Prometheus-formatted metrics
func (c *Collector) Collect() (string, error) {
	snapshot := c.GetSnapshot()

	c.mutex.RLock()
	uptime := snapshot.Timestamp.Sub(c.startTime).Seconds()
	c.mutex.RUnlock()

	var lines []string
	lines = append(lines, "# HELP relay_uptime_seconds Time since the server started")
	lines = append(lines, "# TYPE relay_uptime_seconds gauge")
	lines = append(lines, fmt.Sprintf("relay_uptime_seconds %f", uptime))
	lines = append(lines, "")

	lastName := ""
	for _, counter := range snapshot.Counters {
		if counter.Name != lastName {
			if lastName != "" {
				lines = append(lines, "")
			}
			lines = append(lines, fmt.Sprintf("# HELP %s %s", counter.Name, getHelp(counter.Name)))
			lines = append(lines, fmt.Sprintf("# TYPE %s counter", counter.Name))
			lastName = counter.Name
		}
		lines = append(lines, fmt.Sprintf("%s%s %d", counter.Name, counter.Labels, counter.Value))
	}
	if lastName != "" {
		lines = append(lines, "")
	}

	lastName = ""
	for _, hist := range snapshot.Histograms {
		if hist.Name != lastName {
			if lastName != "" {
				lines = append(lines, "")
			}
			lines = append(lines, fmt.Sprintf("# HELP %s %s", hist.Name, getHelp(hist.Name)))
			lines = append(lines, fmt.Sprintf("# TYPE %s histogram", hist.Name))
			lastName = hist.Name
		}

		for i, limit := range hist.Buckets {
			lines = append(lines, fmt.Sprintf("%s_bucket%s %d",
				hist.Name, addBucketLabel(hist.Labels, strconv.FormatFloat(limit, 'g', -1, 64)), hist.Counts[i]))
		}
		lines = append(lines, fmt.Sprintf("%s_bucket%s %d", hist.Name, addBucketLabel(hist.Labels, "+Inf"), hist.Count))
		lines = append(lines, fmt.Sprintf("%s_sum%s %f", hist.Name, hist.Labels, hist.Sum))
		lines = append(lines, fmt.Sprintf("%s_count%s %d", hist.Name, hist.Labels, hist.Count))
	}
	if lastName != "" {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n"), nil
}

func (c *Collector) inc(name string, labelPairs ...string) {
	key := seriesKey{name: name, labels: formatLabels(labelPairs...)}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.counters[key]++
}

func (c *Collector) observe(name string, value float64, labelPairs ...string) {
	key := seriesKey{name: name, labels: formatLabels(labelPairs...)}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	h, ok := c.histograms[key]
	if !ok {
		h = &histogram{counts: make([]int64, len(c.histogramBuckets))}
		c.histograms[key] = h
	}
	for i, limit := range c.histogramBuckets {
		if value <= limit {
			h.counts[i]++
			break
		}
	}
	h.sum += value
	h.count++
}

// Helper functions for Prometheus formatting

func getHelp(metricName string) string {
	switch metricName {
	case "http_requests_total":
		return "Total number of HTTP requests"
	case "http_request_duration_seconds":
		return "HTTP request duration in seconds"
	case "relay_signals_total":
		return "Total number of webhook signals by outcome"
	case "exchange_responses_total":
		return "Total number of exchange responses by HTTP status"
	case "exchange_latency_seconds":
		return "Exchange order round-trip latency in seconds"
	default:
		return "Relay metric"
	}
}

// formatLabels renders name/value pairs in the given order
func formatLabels(pairs ...string) string {
	if len(pairs) < 2 {
		return ""
	}

	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, pairs[i], escapeLabelValue(pairs[i+1])))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabelValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return strings.ReplaceAll(value, "\n", `\n`)
}

func addBucketLabel(existingLabels string, bucketLimit string) string {
	if existingLabels == "" {
		return fmt.Sprintf(`{le="%s"}`, bucketLimit)
	}

	trimmed := strings.TrimSuffix(existingLabels, "}")
	return fmt.Sprintf(`%s,le="%s"}`, trimmed, bucketLimit)
}
