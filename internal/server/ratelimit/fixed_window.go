// Package ratelimit throttles resend-verification requests with a Redis
// fixed-window counter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable wraps Redis failures. Callers decide whether to fail
// open or closed.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

const keyPrefix = "gophauth:resend:"

// FixedWindow allows at most Limit calls per key within Window.
type FixedWindow struct {
	redis  redis.Cmdable
	limit  int
	window time.Duration
}

func NewFixedWindow(client redis.Cmdable, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{redis: client, limit: limit, window: window}
}

// Allow counts one call for key. It returns common.ErrorRateLimited once the
// window's budget is spent. A counter left without an expiry, for instance by
// an EXPIRE that failed, gets one on the next call so the key cannot stick.
func (l *FixedWindow) Allow(ctx context.Context, key string) error {
	k := keyPrefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	// TTL is -1 while the counter has no expiry.
	if ttl.Val() < 0 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if incr.Val() > int64(l.limit) {
		return common.ErrorRateLimited
	}

	return nil
}

// NewRedisClient builds a client for addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
