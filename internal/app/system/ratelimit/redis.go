package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter counts requests in Redis so limits hold across instances.
// If Redis is unreachable requests are allowed and the error logged.
type RedisLimiter struct {
	client   redis.Cmdable
	prefix   string
	limit    int64
	duration time.Duration
	log      *zap.Logger
}

// NewRedisLimiter returns a limiter storing counters under prefix.
func NewRedisLimiter(client redis.Cmdable, prefix string, limit int, duration time.Duration, log *zap.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), duration: duration, log: log}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	k := fmt.Sprintf("%s:%s", l.prefix, key)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.duration)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("redis rate limit check failed; allowing", zap.String("key", k), zap.Error(err))
		return true
	}
	return incr.Val() <= l.limit
}

// Connect parses a redis:// or rediss:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
