package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bridge-metrics/internal/api/httputil"
	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/metrics"
	"bridge-metrics/internal/observability"
	"bridge-metrics/internal/storage"
)

// Aggregator is the aggregation surface the handlers serve.
type Aggregator interface {
	Source() string
	GetKPISummary(ctx context.Context, params domain.QueryParams) (*domain.KPISummary, error)
	GetTimeSeries(ctx context.Context, params domain.QueryParams) ([]domain.TimeSeriesPoint, error)
	GetDimensionSummary(ctx context.Context, params domain.QueryParams, dim domain.Dimension) ([]domain.DimensionSummary, error)
	GetDashboard(ctx context.Context, params domain.QueryParams) (*metrics.Dashboard, error)
}

var _ Aggregator = (*metrics.Aggregator)(nil)

type Deps struct {
	Log        zerolog.Logger
	Aggregator Aggregator
	// Pinger backs /readiness; nil means always ready.
	Pinger storage.Pinger
	// Defaults fill the range and granularity a request omits.
	Defaults     domain.QueryParams
	QueryTimeout time.Duration
}

type API struct {
	deps Deps
	log  zerolog.Logger
}

func NewAPI(d Deps) *API {
	if d.Aggregator == nil {
		panic("aggregator cannot be nil")
	}
	return &API{deps: d, log: d.Log.With().Str("component", "api").Logger()}
}

type rangeView struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Granularity string `json:"granularity,omitempty"`
}

type overviewResponse struct {
	Range rangeView          `json:"range"`
	KPI   *domain.KPISummary `json:"kpi"`
}

type timeSeriesResponse struct {
	Range  rangeView                `json:"range"`
	Points []domain.TimeSeriesPoint `json:"points"`
}

type dimensionResponse struct {
	Range     rangeView                 `json:"range"`
	Dimension domain.Dimension          `json:"dimension"`
	Summaries []domain.DimensionSummary `json:"summaries"`
}

func (a *API) Healthz(w http.ResponseWriter, _ *http.Request) {
	if err := httputil.JSON(w, http.StatusOK, map[string]any{}, nil); err != nil {
		a.log.Error().Err(err).Msg("healthz: write response")
	}
}

// Readiness pings the event source.
func (a *API) Readiness(w http.ResponseWriter, r *http.Request) {
	if a.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := a.deps.Pinger.Ping(ctx)
		observability.SetSourceUp(a.deps.Aggregator.Source(), err == nil)
		if err != nil {
			a.log.Warn().Err(err).Str("source", a.deps.Aggregator.Source()).Msg("readiness: source ping failed")
			a.writeError(w, r, httputil.Error(w, r, http.StatusServiceUnavailable, "dependencies_unhealthy", "event source is unreachable", map[string]any{
				"source": a.deps.Aggregator.Source(),
			}))
			return
		}
	}

	if err := httputil.JSON(w, http.StatusOK, map[string]string{"source": a.deps.Aggregator.Source()}, nil); err != nil {
		a.log.Error().Err(err).Msg("readiness: write response")
	}
}

func (a *API) Overview(w http.ResponseWriter, r *http.Request) {
	params, ok := a.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.queryContext(r)
	defer cancel()

	kpi, err := a.deps.Aggregator.GetKPISummary(ctx, params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, r, overviewResponse{Range: viewOf(params, false), KPI: kpi})
}

func (a *API) TimeSeries(w http.ResponseWriter, r *http.Request) {
	params, ok := a.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.queryContext(r)
	defer cancel()

	points, err := a.deps.Aggregator.GetTimeSeries(ctx, params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, r, timeSeriesResponse{Range: viewOf(params, true), Points: points})
}

func (a *API) Dimension(w http.ResponseWriter, r *http.Request) {
	dim, err := domain.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	params, ok := a.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.queryContext(r)
	defer cancel()

	summaries, err := a.deps.Aggregator.GetDimensionSummary(ctx, params, dim)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, r, dimensionResponse{Range: viewOf(params, false), Dimension: dim, Summaries: summaries})
}

// Dashboard returns every aggregate of the range in one response.
func (a *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	params, ok := a.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := a.queryContext(r)
	defer cancel()

	d, err := a.deps.Aggregator.GetDashboard(ctx, params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.ok(w, r, d)
}

// params reads start, end and granularity, falling back to the defaults.
func (a *API) params(w http.ResponseWriter, r *http.Request) (domain.QueryParams, bool) {
	q := r.URL.Query()
	start := q.Get("start")
	if start == "" {
		start = a.deps.Defaults.Start()
	}
	end := q.Get("end")
	if end == "" {
		end = a.deps.Defaults.End()
	}
	granularity := q.Get("granularity")
	if granularity == "" {
		granularity = string(a.deps.Defaults.Granularity)
	}

	params, err := domain.NewQueryParams(start, end, granularity)
	if err != nil {
		a.fail(w, r, err)
		return domain.QueryParams{}, false
	}
	return params, true
}

func (a *API) queryContext(r *http.Request) (context.Context, context.CancelFunc) {
	if a.deps.QueryTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), a.deps.QueryTimeout)
}

func (a *API) ok(w http.ResponseWriter, r *http.Request, body any) {
	if err := httputil.JSON(w, http.StatusOK, body, nil); err != nil {
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("write response")
	}
}

// fail maps the aggregation error taxonomy onto HTTP statuses.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid *domain.InvalidParameterError
		div     *domain.DivisionUndefinedError
	)

	switch {
	case errors.As(err, &invalid):
		a.writeError(w, r, httputil.Error(w, r, http.StatusBadRequest, "invalid_parameter", invalid.Error(), map[string]any{
			"field": invalid.Field,
			"value": invalid.Value,
		}))
	case errors.As(err, &div):
		a.writeError(w, r, httputil.Error(w, r, http.StatusUnprocessableEntity, "division_undefined", div.Error(), map[string]any{
			"metric": div.Metric,
		}))
	case errors.Is(err, context.DeadlineExceeded):
		a.log.Warn().Err(err).Str("path", r.URL.Path).Msg("aggregation timed out")
		a.writeError(w, r, httputil.Error(w, r, http.StatusGatewayTimeout, "timeout", "aggregation query timed out", nil))
	case errors.Is(err, domain.ErrDataSource):
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("aggregation failed")
		a.writeError(w, r, httputil.Error(w, r, http.StatusBadGateway, "data_source_error", "event source query failed", map[string]any{
			"source": a.deps.Aggregator.Source(),
		}))
	default:
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		a.writeError(w, r, httputil.Error(w, r, http.StatusInternalServerError, "internal_error", "internal error", nil))
	}
}

func (a *API) writeError(_ http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		a.log.Error().Err(err).Str("path", r.URL.Path).Msg("write error response")
	}
}

func viewOf(p domain.QueryParams, withGranularity bool) rangeView {
	v := rangeView{Start: p.Start(), End: p.End()}
	if withGranularity {
		v.Granularity = string(p.Granularity)
	}
	return v
}
