// Package main writes REPORT.md, timeseries.csv and dimensions.csv for a
// date range.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bridge-metrics/internal/app"
	"bridge-metrics/internal/config"
	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/reporting"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "Path to YAML config file (defaults apply when empty)")
	outputDir := flag.String("output-dir", "", "Output directory for generated files (overrides report.output_dir)")
	start := flag.String("start", "", "Range start date YYYY-MM-DD (defaults to http.defaults.start)")
	end := flag.String("end", "", "Range end date YYYY-MM-DD (defaults to http.defaults.end)")
	granularity := flag.String("granularity", "", "Series granularity: day, week or month (defaults to http.defaults.granularity)")
	useFixtures := flag.Bool("use-fixtures", false, "Use the in-memory source seeded with the built-in dataset")
	flag.Parse()

	cfg, log, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *useFixtures {
		cfg.Source.Driver = config.DriverMemory
		cfg.Source.LoadFixtures = true
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}

	d := cfg.HTTP.Defaults
	params, err := domain.NewQueryParams(orDefault(*start, d.Start), orDefault(*end, d.End), orDefault(*granularity, d.Granularity))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to source: %v\n", err)
		os.Exit(1)
	}
	defer container.Close()

	report, err := reporting.NewGenerator(container.Aggregator).Generate(ctx, params)
	if err != nil {
		container.Close()
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	paths, err := reporting.Write(cfg.Report.OutputDir, report)
	if err != nil {
		container.Close()
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Report for %s .. %s generated successfully:\n", params.Start(), params.End())
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
