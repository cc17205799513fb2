package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedisClient connects to the shared durable cache store. If redisURL
// is empty or the connection fails, it returns nil and the caches run
// memory-only. A missing durable tier is a supported configuration, not
// an error.
func NewRedisClient(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, durable cache tier disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, durable cache tier disabled")
		return nil
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, durable cache tier disabled")
		return nil
	}

	log.Info().Msg("redis: connected, durable cache tier enabled")
	return rdb
}
