// Package main applies the embedded schema migrations to the configured source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bridge-metrics/internal/app"
	"bridge-metrics/internal/config"
	"bridge-metrics/internal/storage/migrations"
	pgstore "bridge-metrics/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "Path to YAML config file (defaults apply when empty)")
	driver := flag.String("driver", "", "Source to migrate: clickhouse or postgres (defaults to source.driver)")
	flag.Parse()

	cfg, log, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Source.Driver = *driver
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.Source.Driver {
	case config.DriverClickHouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Source.ClickHouse.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("clickhouse migrations failed")
		}
		_ = conn.Close()

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Source.Postgres.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres")
		}
		err = migrations.RunPostgresMigrations(ctx, pool)
		pool.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres migrations failed")
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: driver %q has no schema to migrate\n", cfg.Source.Driver)
		os.Exit(1)
	}

	log.Info().Str("driver", cfg.Source.Driver).Msg("migrations applied")
}
