package shipping

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (TokenCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTokenCache(client, zerolog.Nop()), mr
}

func TestRedisTokenCache_RoundTrip(t *testing.T) {
	cache, _ := newRedisCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "empty cache must miss")

	cache.Set(ctx, "token-abc", time.Minute)

	token, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "token-abc", token)
}

func TestRedisTokenCache_Expiry(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	cache.Set(ctx, "token-abc", time.Minute)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "expired token must miss")
}

func TestRedisTokenCache_ServerDownIsAMiss(t *testing.T) {
	cache, mr := newRedisCache(t)
	ctx := context.Background()

	cache.Set(ctx, "token-abc", time.Minute)
	mr.Close()

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "cache failure must degrade to re-authentication")
}

func TestMemoryTokenCache(t *testing.T) {
	cache := NewMemoryTokenCache()
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok)

	cache.Set(ctx, "token-abc", time.Minute)
	token, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "token-abc", token)

	cache.Set(ctx, "token-abc", -time.Second)
	_, ok = cache.Get(ctx)
	assert.False(t, ok, "a past expiry must miss")
}

func TestMemoryTokenCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryTokenCache()
	ctx := context.Background()

	// Shipping calls hit the cache from concurrent handler goroutines;
	// run under -race.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			cache.Set(ctx, fmt.Sprintf("token-%d", n), time.Minute)
		}(i)
		go func() {
			defer wg.Done()
			cache.Get(ctx)
		}()
	}
	wg.Wait()

	token, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.Contains(t, token, "token-")
}
