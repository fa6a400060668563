// Package cache memoizes aggregation results by their exact input tuple.
//
// Results are stored JSON encoded so every caller decodes a private copy.
// Concurrent callers on the same key wait for a single computation.
// Errors are never cached, and a failing backend degrades to a miss.
// There is no invalidation: entries live until evicted or expired.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"bridge-metrics/internal/observability"
)

// Key identifies one aggregation result.
type Key struct {
	Kind        string
	Start       string
	End         string
	Granularity string
}

// String returns the backend key of k.
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.Kind, k.Start, k.End, k.Granularity)
}

// Backend stores encoded results.
type Backend interface {
	// Get returns the value stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error
}

// ResultCache memoizes computations over a Backend.
// A nil *ResultCache computes every call.
type ResultCache struct {
	backend Backend
	group   singleflight.Group
	log     zerolog.Logger
}

// New creates a result cache over backend.
func New(backend Backend, log zerolog.Logger) *ResultCache {
	if backend == nil {
		backend = Noop{}
	}
	return &ResultCache{
		backend: backend,
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// ErrCodec marks a result that could not be encoded or decoded.
var ErrCodec = errors.New("cache codec failure")

// GetOrCompute returns the cached value of key or computes, stores and
// returns it. Concurrent callers of the same key share one compute call.
// The shared call ignores the cancellation of the caller that started it
// but keeps its deadline; every caller stops waiting when its own ctx is done.
func GetOrCompute[T any](ctx context.Context, c *ResultCache, key Key, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return compute(ctx)
	}

	k := key.String()
	if v, ok := lookup[T](ctx, c, key, k); ok {
		observability.RecordCacheLookup(key.Kind, observability.CacheHit)
		return v, nil
	}

	ch := c.group.DoChan(k, func() (any, error) {
		flightCtx, cancel := detach(ctx)
		defer cancel()

		// A flight that finished between lookup and DoChan has already stored the result.
		if data, ok, err := c.backend.Get(flightCtx, k); err == nil && ok {
			return data, nil
		}

		v, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %w", ErrCodec, key.Kind, err)
		}
		if err := c.backend.Set(flightCtx, k, data); err != nil {
			c.log.Warn().Err(err).Str("key", k).Msg("cache backend set failed")
		}
		return data, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	result := observability.CacheMiss
	if res.Shared {
		result = observability.CacheShared
	}
	observability.RecordCacheLookup(key.Kind, result)

	if res.Err != nil {
		return zero, res.Err
	}

	var v T
	if err := json.Unmarshal(res.Val.([]byte), &v); err != nil {
		return zero, fmt.Errorf("%w: decode %s: %w", ErrCodec, key.Kind, err)
	}
	return v, nil
}

// detach returns a context that outlives the cancellation of ctx but not
// its deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	d := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(d, deadline)
	}
	return context.WithCancel(d)
}

// lookup reads and decodes key from the backend. Failures are logged and
// reported as a miss.
func lookup[T any](ctx context.Context, c *ResultCache, key Key, k string) (T, bool) {
	var v T

	data, ok, err := c.backend.Get(ctx, k)
	if err != nil {
		observability.RecordCacheLookup(key.Kind, observability.CacheError)
		c.log.Warn().Err(err).Str("key", k).Msg("cache backend get failed")
		return v, false
	}
	if !ok {
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("discarding undecodable cache entry")
		var zero T
		return zero, false
	}
	return v, true
}
