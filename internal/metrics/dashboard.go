package metrics

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"bridge-metrics/internal/domain"
)

// Dashboard holds every aggregate of one range. KPI is nil when the range
// has no users.
type Dashboard struct {
	Start       string                                         `json:"start"`
	End         string                                         `json:"end"`
	Granularity domain.Granularity                             `json:"granularity"`
	KPI         *domain.KPISummary                             `json:"kpi"`
	Series      []domain.TimeSeriesPoint                       `json:"series"`
	Dimensions  map[domain.Dimension][]domain.DimensionSummary `json:"dimensions"`
}

// GetDashboard runs the overview, the series and every dimension summary
// concurrently. The first failure cancels the rest.
func (a *Aggregator) GetDashboard(ctx context.Context, params domain.QueryParams) (*Dashboard, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Start:       params.Start(),
		End:         params.End(),
		Granularity: params.Granularity,
	}
	dims := make([][]domain.DimensionSummary, len(domain.Dimensions))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kpi, err := a.GetKPISummary(gctx, params)
		if errors.Is(err, domain.ErrDivisionUndefined) {
			return nil
		}
		d.KPI = kpi
		return err
	})
	g.Go(func() error {
		series, err := a.GetTimeSeries(gctx, params)
		d.Series = series
		return err
	})
	for i, dim := range domain.Dimensions {
		g.Go(func() error {
			s, err := a.GetDimensionSummary(gctx, params, dim)
			dims[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Dimensions = make(map[domain.Dimension][]domain.DimensionSummary, len(dims))
	for i, dim := range domain.Dimensions {
		d.Dimensions[dim] = dims[i]
	}
	return d, nil
}
