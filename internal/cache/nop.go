package cache

import (
	"context"
	"time"
)

// NopCache never stores anything; every Get misses. It is used when no cache
// backend is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) DeleteMatching(context.Context, string) error { return nil }
func (NopCache) Ping(context.Context) error { return nil }
func (NopCache) Close() error { return nil }
