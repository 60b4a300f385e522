package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentedCache counts cache outcomes by operation.
type InstrumentedCache struct {
	inner    Cache
	requests *prometheus.CounterVec
}

// NewInstrumentedCache registers catalog_cache_requests_total on reg and
// wraps inner.
func NewInstrumentedCache(inner Cache, reg prometheus.Registerer) *InstrumentedCache {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "cache_requests_total",
			Help:      "Cache operations by operation and result (hit, miss, ok, error).",
		},
		[]string{"op", "result"},
	)
	reg.MustRegister(requests)
	return &InstrumentedCache{inner: inner, requests: requests}
}

func (c *InstrumentedCache) observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil && op == "get":
		result = "hit"
	case IsMiss(err):
		result = "miss"
	case err != nil:
		result = "error"
	}
	c.requests.WithLabelValues(op, result).Inc()
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.inner.Get(ctx, key)
	c.observe("get", err)
	return b, err
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, value, ttl)
	c.observe("set", err)
	return err
}

func (c *InstrumentedCache) DeleteMatching(ctx context.Context, pattern string) error {
	err := c.inner.DeleteMatching(ctx, pattern)
	c.observe("delete", err)
	return err
}

func (c *InstrumentedCache) Ping(ctx context.Context) error { return c.inner.Ping(ctx) }

func (c *InstrumentedCache) Close() error { return c.inner.Close() }
