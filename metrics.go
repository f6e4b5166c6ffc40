package buflog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reasons of dropped lines (label values of buflog_lines_dropped_total).
const (
	_DROP_CLOSED       = "closed"
	_DROP_OPEN_FAILED  = "open_failed"
	_DROP_WRITE_FAILED = "write_failed"
)

// metrics are owned by one Registry so several registries (tests) never
// collide on a global prometheus registerer.
type metrics struct {
	linesEnqueued *prometheus.CounterVec
	linesFlushed  *prometheus.CounterVec
	linesDropped  *prometheus.CounterVec
	flushPasses   prometheus.Counter
	passDuration  prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		linesEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buflog_lines_enqueued_total",
			Help: "Lines accepted into a file buffer",
		}, []string{"buffer"}),
		linesFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buflog_lines_flushed_total",
			Help: "Lines appended to the buffer's file",
		}, []string{"buffer"}),
		linesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "buflog_lines_dropped_total",
			Help: "Lines lost by reason (closed buffer, open or write failure)",
		}, []string{"buffer", "reason"}),
		flushPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "buflog_flush_passes_total",
			Help: "Completed flush passes over all buffers",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "buflog_flush_pass_duration_seconds",
			Help:    "Time the registry lock was held by a flush pass",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.linesEnqueued, m.linesFlushed, m.linesDropped, m.flushPasses, m.passDuration}
}

func (m *metrics) enqueued(buffer string) {
	m.linesEnqueued.WithLabelValues(buffer).Inc()
}

func (m *metrics) flushed(buffer string, n int) {
	if n > 0 {
		m.linesFlushed.WithLabelValues(buffer).Add(float64(n))
	}
}

func (m *metrics) dropped(buffer, reason string, n int) {
	if n > 0 {
		m.linesDropped.WithLabelValues(buffer, reason).Add(float64(n))
	}
}

func (m *metrics) pass(started time.Time) {
	m.flushPasses.Inc()
	m.passDuration.Observe(time.Since(started).Seconds())
}

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range r.metrics.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	for _, c := range r.metrics.collectors() {
		c.Collect(ch)
	}
}
