package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"bridge-metrics/internal/domain"
)

// RenderTimeSeriesCSV renders series points as CSV string.
func RenderTimeSeriesCSV(points []domain.TimeSeriesPoint) (string, error) {
	records := [][]string{{"bucket", "transfer_count", "user_count", "volume_usd", "avg_volume_per_transfer"}}
	for _, p := range points {
		records = append(records, []string{
			p.Bucket.Format(domain.DateLayout),
			strconv.FormatInt(p.TransferCount, 10),
			strconv.FormatInt(p.UserCount, 10),
			formatFloat(p.VolumeUSD),
			formatFloat(p.AvgVolumePerTransfer),
		})
	}
	return renderCSV(records)
}

// RenderDimensionsCSV renders every dimension section in one long-format CSV.
func RenderDimensionsCSV(sections []DimensionSection) (string, error) {
	records := [][]string{{"dimension", "dimension_value", "transfer_count", "user_count", "volume_usd"}}
	for _, s := range sections {
		for _, row := range s.Rows {
			records = append(records, []string{
				string(s.Dimension),
				row.DimensionValue,
				strconv.FormatInt(row.TransferCount, 10),
				strconv.FormatInt(row.UserCount, 10),
				formatFloat(row.VolumeUSD),
			})
		}
	}
	return renderCSV(records)
}

func renderCSV(records [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
