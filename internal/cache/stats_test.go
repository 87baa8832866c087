package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safecase-systems/safecase/internal/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func sampleStats() *models.CaseStats {
	return &models.CaseStats{
		Total:  10,
		Open:   7,
		Closed: 3,
		ByStatus: map[string]int{
			"Open":        4,
			"In Progress": 3,
			"Closed":      3,
		},
	}
}

func TestStatsCacheMissWhenEmpty(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewStatsCache(client, time.Minute)

	stats, ok := c.Get(context.Background())

	assert.False(t, ok)
	assert.Nil(t, stats)
}

func TestStatsCacheSetGetRoundTrip(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, sampleStats())

	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)
}

func TestStatsCacheExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, sampleStats())
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestStatsCacheInvalidate(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	c.Set(ctx, sampleStats())
	c.Invalidate(ctx)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestStatsCacheNilClientIsNoop(t *testing.T) {
	c := NewStatsCache(nil, time.Minute)
	ctx := context.Background()

	c.Set(ctx, sampleStats())
	c.Invalidate(ctx)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}
