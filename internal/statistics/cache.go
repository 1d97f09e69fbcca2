package statistics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL keeps dashboard reads cheap while letting new payments show
// up within half a minute.
const DefaultCacheTTL = 30 * time.Second

const cacheKeyPrefix = "benefits:stats:"

// cacheKey derives a stable key from the aggregation kind and its filters.
func cacheKey(kind string, f Filters) string {
	raw, err := json.Marshal(f)
	if err != nil {
		// Filters are plain data; marshalling cannot realistically fail.
		return cacheKeyPrefix + kind + ":unkeyed"
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, kind, hex.EncodeToString(sum[:]))
}

// RedisCache caches computed reports in Redis. Every failure degrades to a
// cache miss; the aggregator never depends on Redis being up.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) GetReport(ctx context.Context, key string) (*Report, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		}
		return nil, false
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		c.logger.WarnContext(ctx, "stats cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &report, true
}

func (c *RedisCache) SetReport(ctx context.Context, key string, report *Report) {
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache write failed", "error", err)
	}
}
