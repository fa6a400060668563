// Package metrics computes bridge transfer KPIs, time series and grouped
// summaries over an event source.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"bridge-metrics/internal/cache"
	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/observability"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
)

// Aggregator answers aggregation requests: it validates params, builds the
// query, memoizes the raw result and derives the averages.
// Safe for concurrent use.
type Aggregator struct {
	source  storage.EventSource
	builder *query.Builder
	cache   *cache.ResultCache
	log     zerolog.Logger
}

// NewAggregator creates an aggregator. A nil cache disables memoization.
func NewAggregator(source storage.EventSource, builder *query.Builder, resultCache *cache.ResultCache, log zerolog.Logger) *Aggregator {
	log = log.With().
		Str("component", "aggregator").
		Str("source", source.Name()).
		Str("dialect", builder.Dialect().Name()).
		Logger()
	return &Aggregator{
		source:  source,
		builder: builder,
		cache:   resultCache,
		log:     log,
	}
}

// Source returns the name of the underlying event source.
func (a *Aggregator) Source() string { return a.source.Name() }

// GetKPISummary returns the scalar indicators of the params range.
// Returns DivisionUndefinedError when the range has no users.
func (a *Aggregator) GetKPISummary(ctx context.Context, params domain.QueryParams) (kpi *domain.KPISummary, err error) {
	defer observe(query.KindOverview, time.Now(), &err)

	totals, err := execute(ctx, a, query.KindOverview, params, scanOverview)
	if err != nil {
		return nil, err
	}
	return totals.KPISummary()
}

// GetTimeSeries returns one point per non-empty bucket, ascending by bucket.
func (a *Aggregator) GetTimeSeries(ctx context.Context, params domain.QueryParams) (points []domain.TimeSeriesPoint, err error) {
	defer observe(query.KindTimeSeries, time.Now(), &err)

	buckets, err := execute(ctx, a, query.KindTimeSeries, params, scanTimeSeries)
	if err != nil {
		return nil, err
	}

	points = make([]domain.TimeSeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, b.Point())
	}
	return points, nil
}

// GetDimensionSummary returns one summary per present value of dim,
// descending by transfer count.
func (a *Aggregator) GetDimensionSummary(ctx context.Context, params domain.QueryParams, dim domain.Dimension) (summaries []domain.DimensionSummary, err error) {
	kind, err := query.KindForDimension(dim)
	if err != nil {
		return nil, err
	}
	defer observe(kind, time.Now(), &err)

	summaries, err = execute(ctx, a, kind, params, scanDimensions)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.DimensionSummary{}
	}
	return summaries, nil
}

func observe(kind query.Kind, start time.Time, err *error) {
	observability.RecordAggregation(string(kind), time.Since(start).Seconds(), *err)
}

// execute builds the query of kind and runs it through the cache.
func execute[T any](ctx context.Context, a *Aggregator, kind query.Kind, params domain.QueryParams, scan scanFunc[T]) (T, error) {
	var zero T

	q, err := a.builder.Build(kind, params)
	if err != nil {
		return zero, err
	}

	key := cache.Key{
		Kind:        string(kind),
		Start:       params.Start(),
		End:         params.End(),
		Granularity: string(params.Granularity),
	}
	v, err := cache.GetOrCompute(ctx, a.cache, key, func(ctx context.Context) (T, error) {
		return run(ctx, a, q, scan)
	})
	if err != nil && !errors.Is(err, domain.ErrDataSource) {
		// Waiting callers and the result codec fail outside run.
		return zero, &domain.DataSourceError{Source: a.source.Name(), Op: string(kind), Err: err}
	}
	return v, err
}

// run executes q on the source and scans the result. Every failure is a
// DataSourceError.
func run[T any](ctx context.Context, a *Aggregator, q *query.Query, scan scanFunc[T]) (T, error) {
	var zero T
	start := time.Now()
	name := a.source.Name()

	fail := func(err error) (T, error) {
		observability.RecordDBQuery(name, string(q.Kind), time.Since(start).Seconds(), 0, err)
		a.log.Error().Err(err).Str("kind", string(q.Kind)).
			Str("start", q.Params.Start()).Str("end", q.Params.End()).
			Msg("aggregation query failed")
		return zero, &domain.DataSourceError{Source: name, Op: string(q.Kind), Err: err}
	}

	rows, err := a.source.Run(ctx, q)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	if err := checkColumns(rows.Columns(), q.Columns); err != nil {
		return fail(err)
	}

	v, n, err := scan(rows)
	if err != nil {
		return fail(err)
	}
	if err := rows.Err(); err != nil {
		return fail(err)
	}

	elapsed := time.Since(start)
	observability.RecordDBQuery(name, string(q.Kind), elapsed.Seconds(), n, nil)
	a.log.Debug().Str("kind", string(q.Kind)).
		Str("start", q.Params.Start()).Str("end", q.Params.End()).
		Str("granularity", string(q.Params.Granularity)).
		Int("rows", n).Dur("duration", elapsed).
		Msg("aggregation query executed")

	return v, nil
}
