package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/metrics"
	"bridge-metrics/internal/observability"
)

// Output file names.
const (
	ReportFile     = "REPORT.md"
	TimeSeriesFile = "timeseries.csv"
	DimensionsFile = "dimensions.csv"
)

// DashboardSource computes every aggregate of a range.
type DashboardSource interface {
	Source() string
	GetDashboard(ctx context.Context, params domain.QueryParams) (*metrics.Dashboard, error)
}

// Generator produces reports from aggregation results.
type Generator struct {
	source DashboardSource
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(source DashboardSource) *Generator {
	return &Generator{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate aggregates the params range into a report.
func (g *Generator) Generate(ctx context.Context, params domain.QueryParams) (*Report, error) {
	d, err := g.source.GetDashboard(ctx, params)
	if err != nil {
		return nil, err
	}

	sections := make([]DimensionSection, 0, len(domain.Dimensions))
	for _, dim := range domain.Dimensions {
		sections = append(sections, DimensionSection{Dimension: dim, Rows: d.Dimensions[dim]})
	}

	return &Report{
		GeneratedAt: g.now(),
		Source:      g.source.Source(),
		Start:       d.Start,
		End:         d.End,
		Granularity: d.Granularity,
		KPI:         d.KPI,
		Series:      d.Series,
		Dimensions:  sections,
	}, nil
}

// Write renders r into dir and returns the written paths.
func Write(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	seriesCSV, err := RenderTimeSeriesCSV(r.Series)
	if err != nil {
		return nil, err
	}
	dimensionsCSV, err := RenderDimensionsCSV(r.Dimensions)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name    string
		content string
	}{
		{ReportFile, RenderMarkdown(r)},
		{TimeSeriesFile, seriesCSV},
		{DimensionsFile, dimensionsCSV},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}

	observability.RecordReportGenerated()
	return paths, nil
}
