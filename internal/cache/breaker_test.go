package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyCache fails every call while down is set, and can block until the
// caller's context is done.
type flakyCache struct {
	*MemoryCache
	down  bool
	hang  bool
	calls int
}

func newFlakyCache() *flakyCache {
	return &flakyCache{MemoryCache: NewMemoryCache(0)}
}

var errBackendDown = errors.New("connection refused")

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.down {
		return nil, errBackendDown
	}
	return f.MemoryCache.Get(ctx, key)
}

func testBreakerConfig() BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MinRequests = 3
	cfg.OpenTimeout = time.Minute
	return cfg
}

func TestBreakerCache_MissesDoNotTrip(t *testing.T) {
	inner := newFlakyCache()
	c := NewBreakerCache(inner, testBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := c.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestBreakerCache_OpensAfterFailures(t *testing.T) {
	inner := newFlakyCache()
	inner.down = true
	c := NewBreakerCache(inner, testBreakerConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, errBackendDown)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	calls := inner.calls
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, calls, inner.calls, "open breaker must not reach the backend")
}

func TestBreakerCache_TimeoutIsFailure(t *testing.T) {
	inner := newFlakyCache()
	inner.hang = true
	c := NewBreakerCache(inner, testBreakerConfig(), zap.NewNop())

	start := time.Now()
	_, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInstrumentedCache_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	inner := newFlakyCache()
	c := NewInstrumentedCache(inner, reg)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)
	_, err = c.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrMiss)
	inner.down = true
	_, err = c.Get(ctx, "k")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("get", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("get", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("set", "ok")))
}
