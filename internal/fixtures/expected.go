package fixtures

import "bridge-metrics/internal/domain"

// Expected aggregates of the dataset over [RangeStart, RangeEnd].
var (
	ExpectedOverview = domain.Totals{TransferCount: 6, UserCount: 4, VolumeUSD: 245, PricedCount: 4}

	ExpectedMonthly = []domain.BucketTotals{
		{Bucket: day("2024-01-01"), Totals: domain.Totals{TransferCount: 3, UserCount: 2, VolumeUSD: 175, PricedCount: 2}},
		{Bucket: day("2024-02-01"), Totals: domain.Totals{TransferCount: 2, UserCount: 2, VolumeUSD: 20, PricedCount: 1}},
		{Bucket: day("2024-03-01"), Totals: domain.Totals{TransferCount: 1, UserCount: 0, VolumeUSD: 50, PricedCount: 1}},
	}

	// Weeks start on Monday.
	ExpectedWeekly = []domain.BucketTotals{
		{Bucket: day("2024-01-01"), Totals: domain.Totals{TransferCount: 1, UserCount: 1, VolumeUSD: 150, PricedCount: 1}},
		{Bucket: day("2024-01-08"), Totals: domain.Totals{TransferCount: 2, UserCount: 2, VolumeUSD: 25, PricedCount: 1}},
		{Bucket: day("2024-01-29"), Totals: domain.Totals{TransferCount: 1, UserCount: 1, VolumeUSD: 0, PricedCount: 0}},
		{Bucket: day("2024-02-12"), Totals: domain.Totals{TransferCount: 1, UserCount: 1, VolumeUSD: 20, PricedCount: 1}},
		{Bucket: day("2024-03-25"), Totals: domain.Totals{TransferCount: 1, UserCount: 0, VolumeUSD: 50, PricedCount: 1}},
	}

	ExpectedBySourceChain = []domain.DimensionSummary{
		{DimensionValue: "ethereum", TransferCount: 2, UserCount: 1, VolumeUSD: 150},
		{DimensionValue: "avalanche", TransferCount: 1, UserCount: 0, VolumeUSD: 50},
		{DimensionValue: "polygon", TransferCount: 1, UserCount: 1, VolumeUSD: 25},
	}

	ExpectedByDestinationChain = []domain.DimensionSummary{
		{DimensionValue: "ethereum", TransferCount: 2, UserCount: 1, VolumeUSD: 75},
		{DimensionValue: "osmosis", TransferCount: 2, UserCount: 2, VolumeUSD: 150},
		{DimensionValue: "avalanche", TransferCount: 1, UserCount: 1, VolumeUSD: 0},
	}

	ExpectedByToken = []domain.DimensionSummary{
		{DimensionValue: "USDC", TransferCount: 3, UserCount: 1, VolumeUSD: 200},
		{DimensionValue: "AXL", TransferCount: 1, UserCount: 1, VolumeUSD: 25},
		{DimensionValue: "WETH", TransferCount: 1, UserCount: 1, VolumeUSD: 20},
	}
)

// ExpectedByDimension returns the expected grouped summary of d.
func ExpectedByDimension(d domain.Dimension) []domain.DimensionSummary {
	switch d {
	case domain.DimensionSourceChain:
		return ExpectedBySourceChain
	case domain.DimensionDestinationChain:
		return ExpectedByDestinationChain
	default:
		return ExpectedByToken
	}
}
