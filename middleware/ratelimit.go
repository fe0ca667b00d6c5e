package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hotel-booking/utils"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// RateLimit is a fixed-window limiter keyed by client IP and route. With
// no redis client it lets everything through; redis errors fail open.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window < time.Second {
		cfg.Window = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "hotel:ratelimit"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		window := time.Now().Unix() / int64(cfg.Window/time.Second)
		key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, route, c.ClientIP(), window)
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limit incr failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if n == 1 {
			if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
				log.Warn("rate limit expire failed", zap.String("key", key), zap.Error(err))
			}
		}
		if n > int64(cfg.Limit) {
			ttl, err := rdb.TTL(ctx, key).Result()
			if err != nil || ttl <= 0 {
				ttl = cfg.Window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			utils.JSONError(c, http.StatusTooManyRequests, "error.rateLimited", "请求过于频繁，请稍后再试")
			return
		}
		c.Next()
	}
}
