package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/fixtures"
	"bridge-metrics/internal/metrics"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
	"bridge-metrics/internal/storage/postgres"
)

func TestEventSource_Aggregations(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	src := postgres.NewEventSource(pool, query.DefaultTables)
	require.NoError(t, fixtures.Load(ctx, src))
	require.NoError(t, src.Ping(ctx))

	builder, err := query.NewBuilder(query.Postgres{}, query.DefaultTables)
	require.NoError(t, err)
	agg := metrics.NewAggregator(src, builder, nil, zerolog.Nop())

	params, err := domain.NewQueryParams(fixtures.RangeStart, fixtures.RangeEnd, "week")
	require.NoError(t, err)

	want, err := fixtures.ExpectedOverview.KPISummary()
	require.NoError(t, err)
	kpi, err := agg.GetKPISummary(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, want, kpi)

	series, err := agg.GetTimeSeries(ctx, params)
	require.NoError(t, err)
	require.Len(t, series, len(fixtures.ExpectedWeekly))
	for i, b := range fixtures.ExpectedWeekly {
		assert.Equal(t, b.Point(), series[i])
	}

	for _, dim := range domain.Dimensions {
		got, err := agg.GetDimensionSummary(ctx, params, dim)
		require.NoError(t, err)
		assert.Equal(t, fixtures.ExpectedByDimension(dim), got, dim)
	}
}

func TestEventSource_InsertAmounts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	src := postgres.NewEventSource(pool, query.Tables{})
	require.NoError(t, src.InsertAmounts(ctx, fixtures.Amounts()))

	err := src.InsertAmounts(ctx, fixtures.Amounts()[:1])
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "expected ErrDuplicateKey, got %v", err)

	bad := "not json"
	err = src.InsertAmounts(ctx, []*domain.TransferAmount{{ID: "0xff_1", AmountRaw: &bad}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput), "expected ErrInvalidInput, got %v", err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM transfer_amounts").Scan(&count))
	assert.Equal(t, len(fixtures.Amounts()), count, "failed batches must not leave rows behind")
}
