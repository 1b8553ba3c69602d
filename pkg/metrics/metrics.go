// Package metrics exposes Prometheus collectors for shard writes and scans.
//
// Metrics are created against a caller-supplied registerer so tests and
// embedders can use an isolated registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	writer := &shard.Writer{MaxShardSize: 1 << 20, Metrics: m}
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "colstore"

// Metrics holds all Prometheus metrics for the storage engine.
type Metrics struct {
	RecordsWritten *prometheus.CounterVec
	BytesWritten   *prometheus.CounterVec
	ShardsOpened   *prometheus.CounterVec
	BytesScanned   *prometheus.CounterVec
	ShardsScanned  *prometheus.CounterVec
	RowsScanned    *prometheus.CounterVec
	PassDuration   *prometheus.HistogramVec
	ScanThroughput *prometheus.GaugeVec
}

// New creates and registers all metrics with the provided registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Total records appended to shard files",
		}, []string{"table", "column"}),
		BytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Total bytes appended to shard files",
		}, []string{"table", "column"}),
		ShardsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_opened_total",
			Help:      "Shard files opened for append",
		}, []string{"table", "column"}),
		BytesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_scanned_total",
			Help:      "Total shard bytes loaded by scans",
		}, []string{"table", "column"}),
		ShardsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shards_scanned_total",
			Help:      "Shard files loaded by scans",
		}, []string{"table", "column"}),
		RowsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_scanned_total",
			Help:      "Logical rows produced per aggregation pass",
		}, []string{"pass"}),
		PassDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of each aggregation pass",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"pass"}),
		ScanThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_throughput_bytes_per_second",
			Help:      "Bytes scanned per second in the most recent pass",
		}, []string{"pass"}),
	}

	reg.MustRegister(
		m.RecordsWritten,
		m.BytesWritten,
		m.ShardsOpened,
		m.BytesScanned,
		m.ShardsScanned,
		m.RowsScanned,
		m.PassDuration,
		m.ScanThroughput,
	)
	return m
}

// ObserveWrite records one buffered append to a shard.
func (m *Metrics) ObserveWrite(table, column string, records, bytes int) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(table, column).Add(float64(records))
	m.BytesWritten.WithLabelValues(table, column).Add(float64(bytes))
}

// ObserveShardOpened counts a shard file opened for append.
func (m *Metrics) ObserveShardOpened(table, column string) {
	if m == nil {
		return
	}
	m.ShardsOpened.WithLabelValues(table, column).Inc()
}

// ObserveShardScanned records one shard loaded by a stream.
func (m *Metrics) ObserveShardScanned(table, column string, bytes int) {
	if m == nil {
		return
	}
	m.ShardsScanned.WithLabelValues(table, column).Inc()
	m.BytesScanned.WithLabelValues(table, column).Add(float64(bytes))
}

// ObservePass records the outcome of one aggregation pass.
func (m *Metrics) ObservePass(pass string, rows uint64, bytes int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RowsScanned.WithLabelValues(pass).Add(float64(rows))
	m.PassDuration.WithLabelValues(pass).Observe(elapsed.Seconds())
	m.ScanThroughput.WithLabelValues(pass).Set(Throughput(bytes, elapsed))
}

// Throughput returns n per second over elapsed, or 0 when no time passed.
func Throughput(n int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(n) / secs
}

// Timer measures elapsed wall time from creation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the time elapsed since the timer was created. It may be
// called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
