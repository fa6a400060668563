package query

import "bridge-metrics/internal/domain"

// Kind selects the shape of an aggregation query.
type Kind string

// Supported aggregation kinds.
const (
	KindOverview           Kind = "overview"
	KindTimeSeries         Kind = "time_series"
	KindBySourceChain      Kind = "group_by_source_chain"
	KindByDestinationChain Kind = "group_by_destination_chain"
	KindByToken            Kind = "group_by_token"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindOverview, KindTimeSeries, KindBySourceChain, KindByDestinationChain, KindByToken}

// Result schemas, in column order.
var (
	OverviewColumns   = []string{"transfer_count", "user_count", "volume_usd", "priced_transfer_count"}
	TimeSeriesColumns = []string{"bucket", "transfer_count", "user_count", "volume_usd", "priced_transfer_count"}
	DimensionColumns  = []string{"dimension_value", "transfer_count", "user_count", "volume_usd"}
)

// KindForDimension returns the group-by kind of d.
func KindForDimension(d domain.Dimension) (Kind, error) {
	switch d {
	case domain.DimensionSourceChain:
		return KindBySourceChain, nil
	case domain.DimensionDestinationChain:
		return KindByDestinationChain, nil
	case domain.DimensionToken:
		return KindByToken, nil
	default:
		return "", &domain.InvalidParameterError{Field: "dimension", Value: string(d), Reason: "unsupported dimension"}
	}
}

// Dimension returns the grouping dimension of a group-by kind.
func (k Kind) Dimension() (domain.Dimension, bool) {
	switch k {
	case KindBySourceChain:
		return domain.DimensionSourceChain, true
	case KindByDestinationChain:
		return domain.DimensionDestinationChain, true
	case KindByToken:
		return domain.DimensionToken, true
	default:
		return "", false
	}
}

// Columns returns the expected result schema of k.
func (k Kind) Columns() []string {
	switch k {
	case KindOverview:
		return OverviewColumns
	case KindTimeSeries:
		return TimeSeriesColumns
	default:
		return DimensionColumns
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}
