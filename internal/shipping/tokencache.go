package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// tokenKey is where the aggregator auth token lives in Redis, shared by all
// service instances.
const tokenKey = "shipping:aggregator:token"

// TokenCache stores the aggregator auth token with an expiry. A cache
// failure is logged and treated as a miss, so the client falls back to
// re-authenticating rather than failing the shipment call.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, ttl time.Duration)
}

// redisTokenCache is the Redis-backed token cache.
type redisTokenCache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisTokenCache creates a token cache on the given Redis client.
func NewRedisTokenCache(client *redis.Client, logger zerolog.Logger) TokenCache {
	return &redisTokenCache{
		client: client,
		logger: logger.With().Str("component", "aggregator-token-cache").Logger(),
	}
}

func (c *redisTokenCache) Get(ctx context.Context) (string, bool) {
	token, err := c.client.Get(ctx, tokenKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("token cache read failed, re-authenticating")
		}
		return "", false
	}
	return token, true
}

func (c *redisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	if err := c.client.Set(ctx, tokenKey, token, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("token cache write failed")
	}
}

// memoryTokenCache is the single-instance fallback when Redis is disabled.
// Shipping calls run on concurrent handler goroutines, so access is locked.
type memoryTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenCache creates an in-process token cache.
func NewMemoryTokenCache() TokenCache {
	return &memoryTokenCache{}
}

func (c *memoryTokenCache) Get(_ context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

func (c *memoryTokenCache) Set(_ context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
}
