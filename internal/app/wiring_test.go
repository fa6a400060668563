package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-metrics/internal/config"
	"bridge-metrics/internal/fixtures"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Source.Driver = config.DriverMemory
	cfg.Source.LoadFixtures = true
	cfg.HTTP.Defaults.Start = fixtures.RangeStart
	cfg.HTTP.Defaults.End = fixtures.RangeEnd
	return cfg
}

func TestBuild_MemoryWithFixtures(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "memory", c.Aggregator.Source())

	router, err := c.Router()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data struct {
			KPI struct {
				TransferCount int64 `json:"transfer_count"`
			} `json:"kpi"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, fixtures.ExpectedOverview.TransferCount, env.Data.KPI.TransferCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bridge_metrics_")
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.Redis.Addr = mr.Addr()

	ctx := context.Background()
	c, err := Build(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	params, err := cfg.DefaultParams()
	require.NoError(t, err)
	_, err = c.Aggregator.GetTimeSeries(ctx, params)
	require.NoError(t, err)

	assert.Len(t, mr.Keys(), 1, "series result is stored in redis")
}

func TestBuild_UnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.Redis.Addr = addr

	_, err := Build(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenCache_None(t *testing.T) {
	rc, closeFn, err := OpenCache(context.Background(), config.CacheConfig{Backend: config.BackendNone}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.Nil(t, rc)
}

func TestOpenSource_Unknown(t *testing.T) {
	_, _, err := OpenSource(context.Background(), config.SourceConfig{Driver: "sqlite"}, config.Default().Tables())
	assert.Error(t, err)
}
