package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/intake/internal/core"
)

func TestObserveImport_Success(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveImport(core.SchemaRelational, core.OutcomeSuccess, core.ImportStats{
		Rows: 6, Entities: 5, Imported: 3, Incomplete: 3, Malformed: 1, Orphans: 2,
	}, 40*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("relational", core.OutcomeSuccess)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Entities.WithLabelValues("imported")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Entities.WithLabelValues("incomplete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedRows.WithLabelValues("malformed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RejectedRows.WithLabelValues("orphan")))
}

func TestObserveImport_FailureOnlyCounts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveImport("", core.OutcomeRejected, core.ImportStats{}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("unknown", core.OutcomeRejected)))
	assert.Equal(t, 0, testutil.CollectAndCount(m.ImportDuration))
}

func TestObserveQuoteAndSync(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuote("checkout", decimal.RequireFromString("10450.00"))
	m.IncrementSyncFailure("contact")
	m.IncrementSyncFailure("contact")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Quotes.WithLabelValues("checkout")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncFailures.WithLabelValues("contact")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveImport(core.SchemaFlat, core.OutcomeSuccess, core.ImportStats{}, time.Second)
		m.ObserveQuote("quote", decimal.Zero)
		m.IncrementSyncFailure("confirmation")
	})
}
