package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key1", []byte("value1"), time.Minute))

	val, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", string(val))

	_, err = c.Get(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "expiring", []byte("value"), 10*time.Millisecond))
	_, err := c.Get(ctx, "expiring")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = c.Get(ctx, "expiring")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in[0] = 'z'

	out, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
	out[0] = 'y'

	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_DeleteMatching(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()

	for _, k := range []string{
		`products_list:0:100:None:None:None:None:None:None:"asc"`,
		`products_list:10:5:"phone":"phones":None:None:None:"price":"desc"`,
		"trending_products",
		"other",
	} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), time.Minute))
	}

	require.NoError(t, c.DeleteMatching(ctx, "products_list*"))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.DeleteMatching(ctx, "trending_products"))
	assert.Equal(t, 1, c.Len())

	_, err := c.Get(ctx, "other")
	assert.NoError(t, err)
}

func TestMemoryCache_EvictLoop(t *testing.T) {
	c := NewMemoryCache(5 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		_, ok := c.entries["short"]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"products_list*", "products_list:0:100", true},
		{"products_list*", "products_list", true},
		{"products_list*", "trending_products", false},
		{"trending_products", "trending_products", true},
		{"trending_products", "trending_products:x", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"*list*", "products_list:9", true},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{"products_list*", `products_list:"a/b:c"`, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.pattern, tt.key), "Match(%q, %q)", tt.pattern, tt.key)
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.True(t, IsMiss(err))
	assert.NoError(t, c.DeleteMatching(ctx, "*"))
}
