package cache

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Bucket string  `json:"bucket"`
	Volume float64 `json:"volume"`
}

var testKey = Key{Kind: "time_series", Start: "2024-01-01", End: "2024-01-31", Granularity: "week"}

func newLRUCache(t *testing.T, capacity int) *ResultCache {
	t.Helper()
	backend, err := NewLRU(capacity)
	require.NoError(t, err)
	return New(backend, zerolog.Nop())
}

func TestGetOrCompute_MemoizesByExactKey(t *testing.T) {
	c := newLRUCache(t, 8)
	ctx := context.Background()

	var calls int
	compute := func(context.Context) ([]point, error) {
		calls++
		return []point{{Bucket: "2024-01-01", Volume: 10}}, nil
	}

	first, err := GetOrCompute(ctx, c, testKey, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, c, testKey, compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	other := testKey
	other.Granularity = "day"
	_, err = GetOrCompute(ctx, c, other, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a different granularity is a different key")
}

func TestGetOrCompute_ReturnsPrivateCopies(t *testing.T) {
	c := newLRUCache(t, 8)
	ctx := context.Background()
	compute := func(context.Context) ([]point, error) {
		return []point{{Bucket: "2024-01-01", Volume: 10}}, nil
	}

	first, err := GetOrCompute(ctx, c, testKey, compute)
	require.NoError(t, err)
	first[0].Volume = -1

	second, err := GetOrCompute(ctx, c, testKey, compute)
	require.NoError(t, err)
	assert.Equal(t, 10.0, second[0].Volume)
}

func TestGetOrCompute_ErrorsAreNotCached(t *testing.T) {
	c := newLRUCache(t, 8)
	ctx := context.Background()
	boom := errors.New("source unreachable")

	var calls int
	failing := func(context.Context) (int, error) {
		calls++
		return 0, boom
	}

	_, err := GetOrCompute(ctx, c, testKey, failing)
	assert.ErrorIs(t, err, boom)
	_, err = GetOrCompute(ctx, c, testKey, failing)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)

	v, err := GetOrCompute(ctx, c, testKey, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGetOrCompute_ConcurrentCallersComputeOnce(t *testing.T) {
	c := newLRUCache(t, 8)
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) ([]point, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []point{{Bucket: "2024-01-01", Volume: 42}}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]point, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrCompute(ctx, c, testKey, compute)
		}(i)
	}

	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 42.0, results[i][0].Volume)
	}
}

func TestGetOrCompute_JoinedCallerSurvivesStarterCancel(t *testing.T) {
	c := newLRUCache(t, 8)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		select {
		case <-release:
			return 11, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	starterCtx, cancel := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)
	go func() {
		_, err := GetOrCompute(starterCtx, c, testKey, compute)
		starterErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	joined := make(chan result, 1)
	go func() {
		v, err := GetOrCompute(context.Background(), c, testKey, compute)
		joined <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-starterErr, context.Canceled)

	close(release)
	r := <-joined
	require.NoError(t, r.err)
	assert.Equal(t, 11, r.v)
	assert.Equal(t, int32(1), calls.Load())

	v, err := GetOrCompute(context.Background(), c, testKey, compute)
	require.NoError(t, err)
	assert.Equal(t, 11, v, "the detached flight stores its result")
}

func TestGetOrCompute_WaiterStopsOnItsOwnContext(t *testing.T) {
	c := newLRUCache(t, 8)

	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) (int, error) {
		close(started)
		<-release
		return 3, nil
	}

	starter := make(chan error, 1)
	go func() {
		_, err := GetOrCompute(context.Background(), c, testKey, compute)
		starter <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := GetOrCompute(ctx, c, testKey, compute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.NoError(t, <-starter)
}

func TestGetOrCompute_FlightKeepsStarterDeadline(t *testing.T) {
	c := newLRUCache(t, 8)
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := ctx.Deadline()

	_, err := GetOrCompute(ctx, c, testKey, func(ctx context.Context) (int, error) {
		got, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.Equal(t, want, got)
		return 1, nil
	})
	require.NoError(t, err)
}

func TestGetOrCompute_EncodeFailureIsCodecError(t *testing.T) {
	c := newLRUCache(t, 8)

	_, err := GetOrCompute(context.Background(), c, testKey, func(context.Context) (float64, error) {
		return math.Inf(1), nil
	})
	assert.ErrorIs(t, err, ErrCodec)

	v, err := GetOrCompute(context.Background(), c, testKey, func(context.Context) (float64, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2.0, v, "a failed encode is not cached")
}

func TestGetOrCompute_NilCacheComputes(t *testing.T) {
	var calls int
	for i := 0; i < 2; i++ {
		_, err := GetOrCompute(context.Background(), nil, testKey, func(context.Context) (int, error) {
			calls++
			return 1, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingBackend) Set(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func TestGetOrCompute_BackendFailureIsAMiss(t *testing.T) {
	c := New(failingBackend{}, zerolog.Nop())

	v, err := GetOrCompute(context.Background(), c, testKey, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestGetOrCompute_UndecodableEntryIsAMiss(t *testing.T) {
	backend, err := NewLRU(4)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), testKey.String(), []byte("not json")))
	c := New(backend, zerolog.Nop())

	v, err := GetOrCompute(context.Background(), c, testKey, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRU(2)
	require.NoError(t, err)

	require.NoError(t, l.Set(ctx, "a", []byte("1")))
	require.NoError(t, l.Set(ctx, "b", []byte("2")))
	_, ok, _ := l.Get(ctx, "a")
	require.True(t, ok)
	require.NoError(t, l.Set(ctx, "c", []byte("3")))

	_, ok, _ = l.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = l.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, l.Len())

	_, err = NewLRU(0)
	assert.Error(t, err)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, rdb
}

func TestRedis_GetSetWithPrefixAndTTL(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	ctx := context.Background()
	r := NewRedis(rdb, "bridge:", time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", []byte(`{"a":1}`)))
	assert.True(t, mr.Exists("bridge:k"))

	data, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	mr.FastForward(2 * time.Minute)
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire after ttl")
}

func TestRedis_SharedAcrossCaches(t *testing.T) {
	_, rdb := setupTestRedis(t)
	ctx := context.Background()

	a := New(NewRedis(rdb, "bridge:", 0), zerolog.Nop())
	b := New(NewRedis(rdb, "bridge:", 0), zerolog.Nop())

	var calls int
	compute := func(context.Context) (int, error) {
		calls++
		return 5, nil
	}

	_, err := GetOrCompute(ctx, a, testKey, compute)
	require.NoError(t, err)
	v, err := GetOrCompute(ctx, b, testKey, compute)
	require.NoError(t, err)

	assert.Equal(t, 5, v)
	assert.Equal(t, 1, calls, "second process must hit the shared entry")
}

func TestRedis_ServerDownIsAMiss(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	mr.Close()

	c := New(NewRedis(rdb, "bridge:", 0), zerolog.Nop())
	v, err := GetOrCompute(context.Background(), c, testKey, func(context.Context) (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "time_series|2024-01-01|2024-01-31|week", testKey.String())
}
