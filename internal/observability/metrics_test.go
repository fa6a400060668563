package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsWith_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith(reg, "test")

	m.CacheLookups.WithLabelValues("overview", CacheHit).Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("overview", CacheHit)))

	n, err := testutil.GatherAndCount(reg, "test_cache_lookups_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordDBQuery(t *testing.T) {
	errs := DefaultMetrics.DBQueryErrors.WithLabelValues("memory", "overview")
	rows := DefaultMetrics.DBRowsReturned.WithLabelValues("memory", "overview")
	beforeErrs, beforeRows := testutil.ToFloat64(errs), testutil.ToFloat64(rows)

	RecordDBQuery("memory", "overview", 0.01, 1, nil)
	RecordDBQuery("memory", "overview", 0.01, 0, errors.New("boom"))

	assert.Equal(t, beforeErrs+1, testutil.ToFloat64(errs))
	assert.Equal(t, beforeRows+1, testutil.ToFloat64(rows))
}

func TestRecordAggregation(t *testing.T) {
	ok := DefaultMetrics.AggregationsTotal.WithLabelValues("time_series", "ok")
	failed := DefaultMetrics.AggregationsTotal.WithLabelValues("time_series", "error")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordAggregation("time_series", 0.2, nil)
	RecordAggregation("time_series", 0.2, errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestSetSourceUp(t *testing.T) {
	SetSourceUp("clickhouse", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(DefaultMetrics.SourceUp.WithLabelValues("clickhouse")))

	SetSourceUp("clickhouse", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(DefaultMetrics.SourceUp.WithLabelValues("clickhouse")))
}
