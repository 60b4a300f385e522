package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around a remote cache.
type BreakerConfig struct {
	Name             string
	Timeout          time.Duration // per-call deadline; 0 disables
	DeleteTimeout    time.Duration // deadline for DeleteMatching, which scans
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counting window
	OpenTimeout      time.Duration // how long the breaker stays open
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "cache",
		Timeout:          200 * time.Millisecond,
		DeleteTimeout:    5 * time.Second,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		OpenTimeout:      10 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// BreakerCache bounds every call to the inner cache by a timeout and stops
// calling it altogether while it keeps failing. Misses are not failures.
type BreakerCache struct {
	inner         Cache
	cb            *gobreaker.CircuitBreaker
	timeout       time.Duration
	deleteTimeout time.Duration
}

// NewBreakerCache wraps inner with a circuit breaker.
func NewBreakerCache(inner Cache, cfg BreakerConfig, logger *zap.Logger) *BreakerCache {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsMiss(err)
		},
	})
	return &BreakerCache{inner: inner, cb: cb, timeout: cfg.Timeout, deleteTimeout: cfg.DeleteTimeout}
}

// State exposes the breaker state for health reporting.
func (c *BreakerCache) State() gobreaker.State {
	return c.cb.State()
}

func (c *BreakerCache) call(ctx context.Context, op string, timeout time.Duration, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("cache %s skipped: %w", op, err)
		}
		return nil, err
	}
	b, _ := out.([]byte)
	return b, nil
}

func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.call(ctx, "get", c.timeout, func(ctx context.Context) ([]byte, error) {
		return c.inner.Get(ctx, key)
	})
}

func (c *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := c.call(ctx, "set", c.timeout, func(ctx context.Context) ([]byte, error) {
		return nil, c.inner.Set(ctx, key, value, ttl)
	})
	return err
}

func (c *BreakerCache) DeleteMatching(ctx context.Context, pattern string) error {
	_, err := c.call(ctx, "delete", c.deleteTimeout, func(ctx context.Context) ([]byte, error) {
		return nil, c.inner.DeleteMatching(ctx, pattern)
	})
	return err
}

// Ping bypasses the breaker so health checks see the real backend.
func (c *BreakerCache) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

func (c *BreakerCache) Close() error {
	return c.inner.Close()
}
