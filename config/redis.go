package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when no address is configured or the server
// does not answer a ping; callers then run without caching and rate limiting.
func NewRedisClient(cfg RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info("redis not configured; rating cache and rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable; continuing without it", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected", zap.String("addr", cfg.Addr))
	return client
}
