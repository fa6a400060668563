package domain

import "time"

// KPISummary holds the scalar indicators of a date range.
type KPISummary struct {
	TransferCount        int64   `json:"transfer_count"`
	UserCount            int64   `json:"user_count"`
	VolumeUSD            float64 `json:"volume_usd"`
	AvgTransfersPerUser  float64 `json:"avg_transfers_per_user"`
	AvgVolumePerTransfer float64 `json:"avg_volume_per_transfer"`
	AvgVolumePerUser     float64 `json:"avg_volume_per_user"`
}

// TimeSeriesPoint holds the indicators of one truncated time bucket.
type TimeSeriesPoint struct {
	Bucket               time.Time `json:"bucket"`
	TransferCount        int64     `json:"transfer_count"`
	UserCount            int64     `json:"user_count"`
	VolumeUSD            float64   `json:"volume_usd"`
	AvgVolumePerTransfer float64   `json:"avg_volume_per_transfer"`
}

// DimensionSummary holds the indicators of one value of a grouping dimension.
type DimensionSummary struct {
	DimensionValue string  `json:"dimension_value"`
	TransferCount  int64   `json:"transfer_count"`
	UserCount      int64   `json:"user_count"`
	VolumeUSD      float64 `json:"volume_usd"`
}

// Totals is the raw aggregate row shared by the overview and every series
// bucket. PricedCount counts transfers whose USD amount is present.
type Totals struct {
	TransferCount int64   `json:"transfer_count"`
	UserCount     int64   `json:"user_count"`
	VolumeUSD     float64 `json:"volume_usd"`
	PricedCount   int64   `json:"priced_transfer_count"`
}

// AvgVolumePerTransfer is the mean USD amount over priced transfers, 0 when none is priced.
func (t Totals) AvgVolumePerTransfer() float64 {
	if t.PricedCount == 0 {
		return 0
	}
	return t.VolumeUSD / float64(t.PricedCount)
}

// KPISummary derives the averages. Per-user averages over zero users
// fail with DivisionUndefinedError.
func (t Totals) KPISummary() (*KPISummary, error) {
	if t.UserCount == 0 {
		return nil, &DivisionUndefinedError{Metric: "avg_transfers_per_user"}
	}
	users := float64(t.UserCount)
	return &KPISummary{
		TransferCount:        t.TransferCount,
		UserCount:            t.UserCount,
		VolumeUSD:            t.VolumeUSD,
		AvgTransfersPerUser:  float64(t.TransferCount) / users,
		AvgVolumePerTransfer: t.AvgVolumePerTransfer(),
		AvgVolumePerUser:     t.VolumeUSD / users,
	}, nil
}

// BucketTotals is one raw series row before averages are derived.
type BucketTotals struct {
	Bucket time.Time `json:"bucket"`
	Totals
}

// Point derives the series point of b.
func (b BucketTotals) Point() TimeSeriesPoint {
	return TimeSeriesPoint{
		Bucket:               b.Bucket,
		TransferCount:        b.TransferCount,
		UserCount:            b.UserCount,
		VolumeUSD:            b.VolumeUSD,
		AvgVolumePerTransfer: b.AvgVolumePerTransfer(),
	}
}
