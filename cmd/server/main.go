// Package main serves the bridge transfer metrics HTTP API:
// - /api/v1: overview, time series, dimension summaries, dashboard
// - /healthz, /readiness: liveness and event source ping
// - /metrics: Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	apihttp "bridge-metrics/internal/api/http"
	"bridge-metrics/internal/app"
	"bridge-metrics/internal/config"
	"bridge-metrics/internal/logging"
	"bridge-metrics/internal/observability"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "Path to YAML config file (defaults apply when empty)")
	addr := flag.String("addr", "", "HTTP listen address (overrides http.addr)")
	flag.Parse()

	cfg, log, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	buildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	container, err := app.Build(buildCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	defer container.Close()

	router, err := container.Router()
	if err != nil {
		return err
	}

	go trackUptime(ctx, 15*time.Second)

	srv := apihttp.NewServer(logging.Component(log, "server"), cfg.HTTP, router)
	return srv.Run(ctx, cfg.App.ShutdownTimeout)
}

// trackUptime adds elapsed wall time to the uptime counter until ctx is done.
func trackUptime(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			observability.AddUptime(now.Sub(last).Seconds())
			last = now
		}
	}
}
