// Package metrics collects Prometheus statistics about a fetch run.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records API traffic and archive writes. It satisfies both
// api.Recorder and fetcher.Recorder.
type Collector struct {
	apiResponses *prometheus.CounterVec
	notModified  prometheus.Counter
	apiLatency   prometheus.Histogram
	writes       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	lastStamp    prometheus.Gauge
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issyours_api_responses_total",
			Help: "API responses by HTTP status code",
		}, []string{"status_code"}),
		notModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "issyours_api_not_modified_total",
			Help: "Conditional API requests answered with 304 Not Modified",
		}),
		apiLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "issyours_api_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issyours_archive_writes_total",
			Help: "Files written to the archive by kind",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "issyours_download_failures_total",
			Help: "Skipped best-effort downloads by kind",
		}, []string{"kind"}),
		lastStamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "issyours_archive_stamp_timestamp_seconds",
			Help: "Unix time recorded in the global archive stamp",
		}),
	}

	reg.MustRegister(
		c.apiResponses,
		c.notModified,
		c.apiLatency,
		c.writes,
		c.failures,
		c.lastStamp,
	)

	return c
}

// RecordAPIResponse counts a response and observes its latency
func (c *Collector) RecordAPIResponse(statusCode int, duration time.Duration) {
	c.apiResponses.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	if statusCode == 304 {
		c.notModified.Inc()
	}
	c.apiLatency.Observe(duration.Seconds())
}

// RecordWrite counts a file written to the archive
func (c *Collector) RecordWrite(kind string) {
	c.writes.WithLabelValues(kind).Inc()
}

// RecordFailure counts a best-effort download that was skipped
func (c *Collector) RecordFailure(kind string) {
	c.failures.WithLabelValues(kind).Inc()
}

// RecordStamp publishes the time of the global stamp
func (c *Collector) RecordStamp(t time.Time) {
	c.lastStamp.Set(float64(t.Unix()))
}

// WriteTextfile dumps every metric of g in the text exposition format, for
// the node exporter textfile collector
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
