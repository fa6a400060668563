package reporting

import (
	"fmt"
	"strings"
	"time"

	"bridge-metrics/internal/domain"
)

var dimensionTitles = map[domain.Dimension]string{
	domain.DimensionSourceChain:      "Source Chain",
	domain.DimensionDestinationChain: "Destination Chain",
	domain.DimensionToken:            "Token",
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Bridge Transfer Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Range: %s .. %s | Granularity: %s | Source: %s\n\n", r.Start, r.End, r.Granularity, r.Source))

	// Overview
	sb.WriteString("## Overview\n\n")
	if r.KPI != nil {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Transfers | %d |\n", r.KPI.TransferCount))
		sb.WriteString(fmt.Sprintf("| Users | %d |\n", r.KPI.UserCount))
		sb.WriteString(fmt.Sprintf("| Volume (USD) | %.2f |\n", r.KPI.VolumeUSD))
		sb.WriteString(fmt.Sprintf("| Transfers per User | %.4f |\n", r.KPI.AvgTransfersPerUser))
		sb.WriteString(fmt.Sprintf("| Volume per Transfer (USD) | %.2f |\n", r.KPI.AvgVolumePerTransfer))
		sb.WriteString(fmt.Sprintf("| Volume per User (USD) | %.2f |\n", r.KPI.AvgVolumePerUser))
	} else {
		sb.WriteString("No users in range; per-user averages are undefined.\n")
	}
	sb.WriteString("\n")

	// Time series
	sb.WriteString(fmt.Sprintf("## Activity by %s\n\n", r.Granularity))
	if len(r.Series) > 0 {
		sb.WriteString("| Bucket | Transfers | Users | Volume (USD) | Volume per Transfer (USD) |\n")
		sb.WriteString("|--------|-----------|-------|--------------|---------------------------|\n")
		for _, p := range r.Series {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f |\n",
				p.Bucket.Format(domain.DateLayout), p.TransferCount, p.UserCount, p.VolumeUSD, p.AvgVolumePerTransfer))
		}
	} else {
		sb.WriteString("No transfers in range.\n")
	}
	sb.WriteString("\n")

	// Dimensions
	for _, s := range r.Dimensions {
		sb.WriteString(fmt.Sprintf("## By %s\n\n", dimensionTitles[s.Dimension]))
		if len(s.Rows) == 0 {
			sb.WriteString("No data available.\n\n")
			continue
		}
		sb.WriteString("| Value | Transfers | Users | Volume (USD) |\n")
		sb.WriteString("|-------|-----------|-------|--------------|\n")
		for _, row := range s.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f |\n",
				escapeCell(row.DimensionValue), row.TransferCount, row.UserCount, row.VolumeUSD))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
