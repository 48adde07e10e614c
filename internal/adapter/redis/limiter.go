// Package redis implements the contact rate limiter on top of Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Strob0t/RentMatch/internal/config"
	"github.com/Strob0t/RentMatch/internal/port/ratelimit"
)

const keyPrefix = "rentmatch:ratelimit:"

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*goredis.Client
}

// New creates a Redis client from the configuration.
// Returns nil if the URL is empty (Redis not configured).
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Limiter is a fixed-window counter: one INCR per attempt, the key expires
// when its window ends.
type Limiter struct {
	rdb goredis.Cmdable
}

var (
	_ ratelimit.Limiter  = (*Limiter)(nil)
	_ ratelimit.Refunder = (*Limiter)(nil)
)

// NewLimiter returns a limiter backed by rdb.
func NewLimiter(rdb goredis.Cmdable) *Limiter {
	return &Limiter{rdb: rdb}
}

// Allow increments the counter for key and reports whether it is within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Decision, error) {
	if limit <= 0 || window <= 0 {
		return ratelimit.Decision{Allowed: true, Remaining: -1}, nil
	}

	k := windowKey(key, window, time.Now())
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.PExpire(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return decide(incr.Val(), limit, ttl.Val(), window), nil
}

// refundScript decrements an existing counter only, so a refund that lands
// in the next window never creates a negative one.
var refundScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

// Refund gives back one unit of key's current window.
func (l *Limiter) Refund(ctx context.Context, key string, window time.Duration) error {
	if window <= 0 {
		return nil
	}
	k := windowKey(key, window, time.Now())
	if err := refundScript.Run(ctx, l.rdb, []string{k}).Err(); err != nil {
		return fmt.Errorf("rate limit refund %s: %w", key, err)
	}
	return nil
}

// windowKey buckets key by the window that contains now, so a window's
// counter cannot be extended by late attempts.
func windowKey(key string, window time.Duration, now time.Time) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("%s%s:%d", keyPrefix, key, bucket)
}

func decide(count int64, limit int, ttl, window time.Duration) ratelimit.Decision {
	if ttl <= 0 {
		ttl = window
	}
	if count > int64(limit) {
		return ratelimit.Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}
	}
	return ratelimit.Decision{Allowed: true, Remaining: limit - int(count)}
}
