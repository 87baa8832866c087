// Package cache provides a Redis-backed cache for the case statistics
// shown on the dashboard.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safecase-systems/safecase/internal/models"
)

const statsKey = "safecase:stats:cases"

// StatsCache caches dashboard case statistics with a short TTL. A nil
// client disables the cache; lookups simply miss.
type StatsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStatsCache creates a stats cache. client may be nil.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{redis: client, ttl: ttl}
}

// Get returns the cached stats, or (nil, false) on miss, disabled cache,
// or any Redis error. Errors are treated as misses so the caller falls
// through to the database.
func (c *StatsCache) Get(ctx context.Context) (*models.CaseStats, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil, false
	}

	var stats models.CaseStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false
	}

	return &stats, true
}

// Set stores the stats with the configured TTL. Failures are ignored;
// the cache is best effort.
func (c *StatsCache) Set(ctx context.Context, stats *models.CaseStats) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}

	c.redis.Set(ctx, statsKey, data, c.ttl)
}

// Invalidate drops the cached stats. Called after case mutations.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	c.redis.Del(ctx, statsKey)
}
