// Package app wires configuration into the event source, cache and
// aggregator shared by the commands.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	apihttp "bridge-metrics/internal/api/http"
	"bridge-metrics/internal/api/http/mw"
	"bridge-metrics/internal/cache"
	"bridge-metrics/internal/config"
	"bridge-metrics/internal/fixtures"
	"bridge-metrics/internal/metrics"
	"bridge-metrics/internal/observability"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
	chstore "bridge-metrics/internal/storage/clickhouse"
	"bridge-metrics/internal/storage/memory"
	pgstore "bridge-metrics/internal/storage/postgres"
)

// Source is an event source that can also be written and pinged.
type Source interface {
	storage.EventSource
	storage.EventWriter
	storage.Pinger
}

var (
	_ Source = (*chstore.EventSource)(nil)
	_ Source = (*pgstore.EventSource)(nil)
	_ Source = (*memory.EventSource)(nil)
)

type Container struct {
	Config     *config.Config
	Log        zerolog.Logger
	Source     Source
	Aggregator *metrics.Aggregator

	cleanup []func()
}

// Build opens the configured source and cache and assembles the aggregator.
// Close releases everything Build opened.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	src, closeSource, err := OpenSource(ctx, cfg.Source, cfg.Tables())
	if err != nil {
		return nil, err
	}
	c.Source = src
	c.cleanup = append(c.cleanup, closeSource)

	if cfg.Source.Driver == config.DriverMemory && cfg.Source.LoadFixtures {
		if err := fixtures.Load(ctx, src); err != nil {
			c.Close()
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		log.Info().Int("transfers", len(fixtures.Transfers())).Msg("memory source seeded with fixtures")
	}

	resultCache, closeCache, err := OpenCache(ctx, cfg.Cache, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.cleanup = append(c.cleanup, closeCache)

	dialect, err := query.DialectFor(cfg.Source.Driver)
	if err != nil {
		c.Close()
		return nil, err
	}
	builder, err := query.NewBuilder(dialect, cfg.Tables())
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Aggregator = metrics.NewAggregator(src, builder, resultCache, log)
	observability.SetSourceUp(src.Name(), true)

	log.Info().
		Str("source", src.Name()).
		Str("dialect", dialect.Name()).
		Str("cache", cfg.Cache.Backend).
		Msg("aggregator ready")
	return c, nil
}

// Router returns the HTTP handler of the API.
func (c *Container) Router() (http.Handler, error) {
	defaults, err := c.Config.DefaultParams()
	if err != nil {
		return nil, err
	}
	api := apihttp.NewAPI(apihttp.Deps{
		Log:          c.Log,
		Aggregator:   c.Aggregator,
		Pinger:       c.Source,
		Defaults:     defaults,
		QueryTimeout: c.Config.HTTP.QueryTimeout,
	})
	return apihttp.BuildRouter(api, mw.NewLogging(c.Log), observability.Handler()), nil
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil
}

// OpenSource connects to the configured event source.
func OpenSource(ctx context.Context, cfg config.SourceConfig, tables query.Tables) (Source, func(), error) {
	switch cfg.Driver {
	case config.DriverClickHouse:
		conn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.NewEventSource(conn, tables), func() { _ = conn.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgstore.NewPoolWithConfig(ctx, cfg.Postgres.DSN, pgstore.PoolConfig{
			MaxConns:        cfg.Postgres.MaxConns,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewEventSource(pool, tables), pool.Close, nil

	case config.DriverMemory:
		return memory.NewEventSource(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}

// OpenCache creates the configured result cache. The none backend returns
// a nil cache, which disables memoization.
func OpenCache(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger) (*cache.ResultCache, func(), error) {
	switch cfg.Backend {
	case config.BackendLRU:
		lru, err := cache.NewLRU(cfg.Capacity)
		if err != nil {
			return nil, nil, err
		}
		return cache.New(lru, log), func() {}, nil

	case config.BackendRedis:
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return cache.New(cache.NewRedis(rdb, cfg.Redis.Prefix, cfg.Redis.TTL), log), func() { _ = rdb.Close() }, nil

	case config.BackendNone:
		return nil, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
