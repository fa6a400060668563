package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-metrics/internal/domain"
)

func params(t *testing.T, start, end, gran string) domain.QueryParams {
	t.Helper()
	p, err := domain.NewQueryParams(start, end, gran)
	require.NoError(t, err)
	return p
}

func TestBuild_ClickHouseOverview(t *testing.T) {
	b, err := NewBuilder(ClickHouse{}, DefaultTables)
	require.NoError(t, err)

	q, err := b.Build(KindOverview, params(t, "2024-01-01", "2024-01-31", "day"))
	require.NoError(t, err)

	assert.Equal(t, []any{"2024-01-01", "2024-01-31"}, q.Args)
	assert.Equal(t, OverviewColumns, q.Columns)
	assert.Contains(t, q.SQL, "BETWEEN toDate(?) AND toDate(?)")
	assert.Contains(t, q.SQL, "FROM transfer_amounts")
	assert.Contains(t, q.SQL, "FROM bridge_transfers")
	assert.Contains(t, q.SQL, "status = 'executed' AND simplified_status = 'received'")
	assert.Contains(t, q.SQL, "LEFT JOIN amounts AS a ON t.tx_hash = a.tx_hash")
	assert.Contains(t, q.SQL, "toInt64(count(amount_usd)) AS priced_transfer_count")
	assert.Contains(t, q.SQL, "SETTINGS join_use_nulls = 1")
	assert.NotContains(t, q.SQL, "GROUP BY bucket")
	assert.Equal(t, "clickhouse", b.Dialect().Name())
}

func TestBuild_PostgresOverview(t *testing.T) {
	b, err := NewBuilder(Postgres{}, DefaultTables)
	require.NoError(t, err)

	q, err := b.Build(KindOverview, params(t, "2024-01-01", "2024-01-31", "day"))
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "BETWEEN $1::date AND $2::date")
	assert.Contains(t, q.SQL, "split_part(id, '_', 1)")
	assert.Contains(t, q.SQL, "jsonb_typeof(amount_raw)")
	assert.Contains(t, q.SQL, "COALESCE(SUM(amount_usd), 0)::float8 AS volume_usd")
	assert.NotContains(t, q.SQL, "SETTINGS")
}

func TestBuild_TimeSeriesTruncation(t *testing.T) {
	tests := []struct {
		dialect Dialect
		gran    string
		want    string
	}{
		{ClickHouse{}, "day", "toDate(event_date) AS bucket"},
		{ClickHouse{}, "week", "toStartOfWeek(event_date, 1) AS bucket"},
		{ClickHouse{}, "month", "toStartOfMonth(event_date) AS bucket"},
		{Postgres{}, "day", "event_date::date AS bucket"},
		{Postgres{}, "week", "date_trunc('week', event_date::timestamp)::date AS bucket"},
		{Postgres{}, "month", "date_trunc('month', event_date::timestamp)::date AS bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name()+"/"+tt.gran, func(t *testing.T) {
			b, err := NewBuilder(tt.dialect, Tables{})
			require.NoError(t, err)

			q, err := b.Build(KindTimeSeries, params(t, "2024-01-01", "2024-03-31", tt.gran))
			require.NoError(t, err)
			assert.Contains(t, q.SQL, tt.want)
			assert.Contains(t, q.SQL, "GROUP BY bucket\nORDER BY bucket ASC")
			assert.Equal(t, TimeSeriesColumns, q.Columns)
		})
	}
}

func TestBuild_GroupBy(t *testing.T) {
	b, err := NewBuilder(ClickHouse{}, DefaultTables)
	require.NoError(t, err)

	for _, d := range domain.Dimensions {
		kind, err := KindForDimension(d)
		require.NoError(t, err)

		q, err := b.Build(kind, params(t, "2024-01-01", "2024-01-31", "month"))
		require.NoError(t, err)

		col := string(d)
		assert.Contains(t, q.SQL, "assumeNotNull("+col+") AS dimension_value")
		assert.Contains(t, q.SQL, "WHERE "+col+" IS NOT NULL AND "+col+" != ''")
		assert.Contains(t, q.SQL, "ORDER BY transfer_count DESC, dimension_value ASC")
		assert.Equal(t, DimensionColumns, q.Columns)
	}
}

func TestBuild_InvalidParams(t *testing.T) {
	b, err := NewBuilder(Postgres{}, DefaultTables)
	require.NoError(t, err)

	reversed := domain.QueryParams{
		StartDate:   params(t, "2024-02-01", "2024-02-01", "day").StartDate,
		EndDate:     params(t, "2024-01-01", "2024-01-01", "day").EndDate,
		Granularity: domain.GranularityDay,
	}
	_, err = b.Build(KindOverview, reversed)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	bad := params(t, "2024-01-01", "2024-01-02", "day")
	bad.Granularity = "hour"
	_, err = b.Build(KindTimeSeries, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = b.Build("group_by_sender", params(t, "2024-01-01", "2024-01-02", "day"))
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestNewBuilder_RejectsUnsafeTableNames(t *testing.T) {
	_, err := NewBuilder(ClickHouse{}, Tables{Transfers: "bridge_transfers; DROP TABLE x", Amounts: "a"})
	assert.Error(t, err)

	_, err = NewBuilder(nil, DefaultTables)
	assert.Error(t, err)

	b, err := NewBuilder(Postgres{}, Tables{Transfers: "analytics.bridge_transfers"})
	require.NoError(t, err)
	q, err := b.Build(KindOverview, params(t, "2024-01-01", "2024-01-02", "day"))
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "FROM analytics.bridge_transfers")
	assert.Contains(t, q.SQL, "FROM transfer_amounts")
}

func TestNewBuilder_RejectsRelationNames(t *testing.T) {
	for _, name := range []string{"events", "amounts", "Transfers"} {
		_, err := NewBuilder(ClickHouse{}, Tables{Transfers: name, Amounts: "transfer_amounts"})
		assert.Error(t, err, name)

		_, err = NewBuilder(Postgres{}, Tables{Transfers: "bridge_transfers", Amounts: name})
		assert.Error(t, err, name)
	}

	_, err := NewBuilder(ClickHouse{}, Tables{Transfers: "bridge.events", Amounts: "bridge.amounts"})
	assert.NoError(t, err, "schema-qualified names are not shadowed")
}

func TestClickHouseNumeric_StripsOnlyEnclosingQuotes(t *testing.T) {
	sql := ClickHouse{}.Numeric("amount_raw")

	assert.Contains(t, sql, `match(trimBoth(amount_raw), '(?s)^".*"$')`)
	assert.Contains(t, sql, "substring(trimBoth(amount_raw), 2, length(trimBoth(amount_raw)) - 2)")
	assert.NotContains(t, sql, "trim(BOTH")
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = DialectFor("memory")
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", d.Name())

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestKindForDimension(t *testing.T) {
	k, err := KindForDimension(domain.DimensionToken)
	require.NoError(t, err)
	assert.Equal(t, KindByToken, k)

	d, ok := k.Dimension()
	assert.True(t, ok)
	assert.Equal(t, domain.DimensionToken, d)

	_, ok = KindOverview.Dimension()
	assert.False(t, ok)

	_, err = KindForDimension("sender")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}
