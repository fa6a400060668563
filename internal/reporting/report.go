package reporting

import (
	"time"

	"bridge-metrics/internal/domain"
)

// Report is the tabular rendition of one dashboard range.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Source      string
	Start       string
	End         string
	Granularity domain.Granularity

	// KPI is nil when the range has no users.
	KPI *domain.KPISummary

	// Series is ascending by bucket.
	Series []domain.TimeSeriesPoint

	// Dimensions follow domain.Dimensions order.
	Dimensions []DimensionSection
}

// DimensionSection holds the grouped summary of one dimension.
type DimensionSection struct {
	Dimension domain.Dimension
	Rows      []domain.DimensionSummary
}
