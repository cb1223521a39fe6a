// Package metrics exposes Prometheus instrumentation for imports, quotes
// and post-checkout sync.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/intake/internal/core"
)

// Metrics holds the intake collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	// Imports by detected schema and outcome
	Imports *prometheus.CounterVec

	// Import latency by schema
	ImportDuration *prometheus.HistogramVec

	// Entities produced by imports, split by completeness
	Entities *prometheus.CounterVec

	// Rows that produced no entity, and child rows with no matching client
	RejectedRows *prometheus.CounterVec

	// Quotes and their totals by kind ("quote", "checkout")
	Quotes     *prometheus.CounterVec
	QuoteTotal *prometheus.HistogramVec

	// Sync publishes that failed, by message kind
	SyncFailures *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_imports_total",
			Help: "Import attempts by schema and outcome",
		}, []string{"schema", "outcome"}),

		ImportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_import_duration_seconds",
			Help:    "Duration of imports from upload to normalized batch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"schema"}),

		Entities: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_entities_total",
			Help: "Entities produced by imports by status",
		}, []string{"status"}), // status: "imported", "incomplete"

		RejectedRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_rejected_rows_total",
			Help: "Input rows that did not become entities by reason",
		}, []string{"reason"}), // reason: "malformed", "orphan"

		Quotes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_quotes_total",
			Help: "Quotes computed by kind",
		}, []string{"kind"}),

		QuoteTotal: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_quote_total_dollars",
			Help:    "Quote totals in dollars by kind",
			Buckets: prometheus.ExponentialBuckets(250, 2, 10),
		}, []string{"kind"}),

		SyncFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_sync_failures_total",
			Help: "Failed post-checkout publishes by message kind",
		}, []string{"kind"}),
	}
}

// ObserveImport records one import attempt. It satisfies core.ImportObserver.
func (m *Metrics) ObserveImport(schema core.SchemaKind, outcome string, stats core.ImportStats, d time.Duration) {
	if m == nil {
		return
	}
	label := string(schema)
	if label == "" {
		label = "unknown"
	}
	m.Imports.WithLabelValues(label, outcome).Inc()
	if outcome != core.OutcomeSuccess {
		return
	}
	m.ImportDuration.WithLabelValues(label).Observe(d.Seconds())
	m.Entities.WithLabelValues("imported").Add(float64(stats.Imported))
	m.Entities.WithLabelValues("incomplete").Add(float64(stats.Incomplete - stats.Malformed))
	m.RejectedRows.WithLabelValues("malformed").Add(float64(stats.Malformed))
	m.RejectedRows.WithLabelValues("orphan").Add(float64(stats.Orphans))
}

// ObserveQuote records a computed quote total.
func (m *Metrics) ObserveQuote(kind string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.Quotes.WithLabelValues(kind).Inc()
	m.QuoteTotal.WithLabelValues(kind).Observe(total.InexactFloat64())
}

// IncrementSyncFailure records a failed publish.
func (m *Metrics) IncrementSyncFailure(kind string) {
	if m != nil {
		m.SyncFailures.WithLabelValues(kind).Inc()
	}
}
