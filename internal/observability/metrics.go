package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the CDC consumer's Prometheus metrics.
type Metrics struct {
	RecordsConsumed *prometheus.CounterVec
	RecordsDropped  *prometheus.CounterVec
	RowsFlushed     *prometheus.CounterVec
	FlushesTotal    *prometheus.CounterVec
	FlushDuration   prometheus.Histogram
	BufferRows      *prometheus.GaugeVec
	OffsetCommits   *prometheus.CounterVec
}

// NewMetrics creates and registers all consumer metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RecordsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "piam_cdc_records_consumed_total",
			Help: "Change records consumed from Kafka.",
		}, []string{"topic"}),

		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "piam_cdc_records_dropped_total",
			Help: "Change records dropped before buffering.",
		}, []string{"topic", "reason"}),

		RowsFlushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "piam_cdc_rows_flushed_total",
			Help: "Rows bulk-inserted into the analytical store.",
		}, []string{"table"}),

		FlushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "piam_cdc_flushes_total",
			Help: "Flush attempts by outcome.",
		}, []string{"status"}),

		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "piam_cdc_flush_duration_seconds",
			Help:    "Wall time per flush attempt.",
			Buckets: prometheus.DefBuckets,
		}),

		BufferRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "piam_cdc_buffer_rows",
			Help: "Rows currently buffered awaiting flush.",
		}, []string{"buffer"}),

		OffsetCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "piam_cdc_offset_commits_total",
			Help: "Offset commit attempts by outcome.",
		}, []string{"status"}),
	}
}
