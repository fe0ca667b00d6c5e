package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Rating is the aggregate review score of a store. AvgRating is nil when
// the store has no reviews.
type Rating struct {
	AvgRating   *float64 `json:"avgRating"`
	ReviewCount int64    `json:"reviewCount"`
}

// RatingCache stores per-store ratings in redis. A nil client turns every
// call into a miss/no-op.
type RatingCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRatingCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RatingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingCache{rdb: rdb, ttl: ttl, log: log}
}

func ratingKey(storeID uint) string {
	return fmt.Sprintf("hotel:store-rating:%d", storeID)
}

func (c *RatingCache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *RatingCache) Get(ctx context.Context, storeID uint) (Rating, bool) {
	if !c.Enabled() {
		return Rating{}, false
	}
	raw, err := c.rdb.Get(ctx, ratingKey(storeID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("rating cache get failed", zap.Uint("store_id", storeID), zap.Error(err))
		}
		return Rating{}, false
	}
	var r Rating
	if err := json.Unmarshal(raw, &r); err != nil {
		return Rating{}, false
	}
	return r, true
}

func (c *RatingCache) Set(ctx context.Context, storeID uint, r Rating) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, ratingKey(storeID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("rating cache set failed", zap.Uint("store_id", storeID), zap.Error(err))
	}
}

func (c *RatingCache) Invalidate(ctx context.Context, storeID uint) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, ratingKey(storeID)).Err(); err != nil {
		c.log.Warn("rating cache invalidate failed", zap.Uint("store_id", storeID), zap.Error(err))
	}
}
