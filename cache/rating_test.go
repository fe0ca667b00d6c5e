package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*RatingCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRatingCache(rdb, time.Minute, zap.NewNop()), mr
}

func TestRatingCache_SetGetInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	avg := 4.0
	c.Set(ctx, 1, Rating{AvgRating: &avg, ReviewCount: 3})
	got, ok := c.Get(ctx, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(3), got.ReviewCount)
	assert.InDelta(t, 4.0, *got.AvgRating, 0.0001)
	assert.True(t, mr.Exists("hotel:store-rating:1"))

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestRatingCache_NullRatingRoundTrips(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, 2, Rating{ReviewCount: 0})
	got, ok := c.Get(ctx, 2)
	assert.True(t, ok)
	assert.Nil(t, got.AvgRating)
}

func TestRatingCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	c.Set(context.Background(), 3, Rating{ReviewCount: 1})
	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(context.Background(), 3)
	assert.False(t, ok)
}

func TestRatingCache_DisabledWithoutClient(t *testing.T) {
	c := NewRatingCache(nil, 0, zap.NewNop())
	assert.False(t, c.Enabled())
	c.Set(context.Background(), 1, Rating{ReviewCount: 1})
	_, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)
	c.Invalidate(context.Background(), 1)
}
