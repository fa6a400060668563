package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/storage"
)

// scanFunc reads a whole result, returning the value and the number of rows read.
type scanFunc[T any] func(rows storage.Rows) (T, int, error)

// checkColumns fails unless got matches want by count, name and order.
func checkColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("result schema mismatch: expected %d columns (%s), got %d (%s)",
			len(want), strings.Join(want, ", "), len(got), strings.Join(got, ", "))
	}
	for i := range want {
		if !strings.EqualFold(got[i], want[i]) {
			return fmt.Errorf("result schema mismatch: column %d is %q, expected %q", i, got[i], want[i])
		}
	}
	return nil
}

// scanOverview requires exactly one row.
func scanOverview(rows storage.Rows) (domain.Totals, int, error) {
	var t domain.Totals
	n := 0
	for rows.Next() {
		n++
		if n > 1 {
			return domain.Totals{}, n, fmt.Errorf("overview returned more than one row")
		}
		if err := rows.Scan(&t.TransferCount, &t.UserCount, &t.VolumeUSD, &t.PricedCount); err != nil {
			return domain.Totals{}, n, fmt.Errorf("scan overview row: %w", err)
		}
		if err := checkFinite("overview", t.VolumeUSD); err != nil {
			return domain.Totals{}, n, err
		}
	}
	if n == 0 {
		if err := rows.Err(); err != nil {
			return domain.Totals{}, 0, err
		}
		return domain.Totals{}, 0, fmt.Errorf("overview returned no rows")
	}
	return t, n, nil
}

// scanTimeSeries requires strictly ascending buckets.
func scanTimeSeries(rows storage.Rows) ([]domain.BucketTotals, int, error) {
	buckets := []domain.BucketTotals{}
	for rows.Next() {
		var b domain.BucketTotals
		if err := rows.Scan(&b.Bucket, &b.TransferCount, &b.UserCount, &b.VolumeUSD, &b.PricedCount); err != nil {
			return nil, len(buckets), fmt.Errorf("scan time series row: %w", err)
		}
		b.Bucket = calendarDate(b.Bucket)
		if err := checkFinite("bucket "+b.Bucket.Format(domain.DateLayout), b.VolumeUSD); err != nil {
			return nil, len(buckets), err
		}

		if n := len(buckets); n > 0 && !buckets[n-1].Bucket.Before(b.Bucket) {
			return nil, n, fmt.Errorf("time series buckets out of order: %s after %s",
				b.Bucket.Format(domain.DateLayout), buckets[n-1].Bucket.Format(domain.DateLayout))
		}
		buckets = append(buckets, b)
	}
	return buckets, len(buckets), nil
}

// scanDimensions rejects absent dimension values.
func scanDimensions(rows storage.Rows) ([]domain.DimensionSummary, int, error) {
	var summaries []domain.DimensionSummary
	for rows.Next() {
		var d domain.DimensionSummary
		if err := rows.Scan(&d.DimensionValue, &d.TransferCount, &d.UserCount, &d.VolumeUSD); err != nil {
			return nil, len(summaries), fmt.Errorf("scan dimension row: %w", err)
		}
		if d.DimensionValue == "" {
			return nil, len(summaries), fmt.Errorf("dimension summary contains an empty value")
		}
		if err := checkFinite("dimension value "+d.DimensionValue, d.VolumeUSD); err != nil {
			return nil, len(summaries), err
		}
		summaries = append(summaries, d)
	}
	return summaries, len(summaries), nil
}

// checkFinite rejects a volume that overflowed the float64 range.
func checkFinite(row string, volume float64) error {
	if math.IsInf(volume, 0) || math.IsNaN(volume) {
		return fmt.Errorf("%s: volume_usd is not finite (%v)", row, volume)
	}
	return nil
}

// calendarDate keeps the calendar date of t as seen in its own location.
// Drivers may return DATE columns at midnight of a non-UTC zone.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
