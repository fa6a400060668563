// Package main loads the built-in fixture dataset into the configured
// source for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bridge-metrics/internal/app"
	"bridge-metrics/internal/config"
	"bridge-metrics/internal/fixtures"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "Path to YAML config file (defaults apply when empty)")
	flag.Parse()

	cfg, log, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Source.Driver == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "Error: the memory source does not persist; use source.load_fixtures instead")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	src, closeSource, err := app.OpenSource(ctx, cfg.Source, cfg.Tables())
	if err != nil {
		log.Fatal().Err(err).Msg("open source")
	}
	defer closeSource()

	if err := fixtures.Load(ctx, src); err != nil {
		closeSource()
		log.Fatal().Err(err).Msg("seed failed")
	}

	log.Info().
		Str("source", src.Name()).
		Int("transfers", len(fixtures.Transfers())).
		Int("amounts", len(fixtures.Amounts())).
		Msg("fixtures loaded")
}
