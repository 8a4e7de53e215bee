package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesNavigated     prometheus.Counter
	NavigationTimeouts prometheus.Counter
	RecordsExtracted   *prometheus.CounterVec
	PlaceholderRows    prometheus.Counter
	SheetWrites        *prometheus.CounterVec
	WriteRetries       prometheus.Counter
	FallbackRuns       prometheus.Counter
	SyncDuration       prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesNavigated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_pages_navigated_total",
			Help: "The total number of page navigations attempted",
		}),
		NavigationTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_navigation_timeouts_total",
			Help: "The total number of navigations that hit the load timeout",
		}),
		RecordsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promoscan_records_extracted_total",
			Help: "The total number of records extracted",
		}, []string{"item"}),
		PlaceholderRows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_placeholder_rows_total",
			Help: "The total number of position-0 placeholder rows emitted",
		}),
		SheetWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "promoscan_sheet_writes_total",
			Help: "The total number of sheet range writes issued",
		}, []string{"kind"}), // 'update', 'append', 'header'
		WriteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_sheet_write_retries_total",
			Help: "The total number of transient-error retries against the sheet",
		}),
		FallbackRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "promoscan_fallback_persist_total",
			Help: "The total number of batches persisted to the local fallback file",
		}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "promoscan_sync_duration_seconds",
			Help:    "Duration of full reconciliation runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}
