package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWindowScript implements the fixed window atomically: INCR the counter
// and start the window TTL on the first hit. Returns {count, remaining ttl ms}.
var incrWindowScript = redis.NewScript(`
local cnt = redis.call('INCR', KEYS[1])
if cnt == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {cnt, ttl}
`)

const redisKeyPrefix = "marketgate:rl:"

// RedisLimiter is a fixed-window rate limiter backed by Redis, for
// deployments running more than one gateway instance. Window expiry is
// handled by key TTL, so no sweeping is needed.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter and verifies connectivity.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) (*RedisLimiter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}, nil
}

// Allow checks whether a request from the given key should be allowed.
// If Redis is unreachable the request is allowed and the failure logged:
// the gateway degrades to unlimited rather than rejecting all traffic.
func (rl *RedisLimiter) Allow(key string) (bool, Info) {
	now := time.Now()
	info := Info{Limit: rl.limit, Remaining: rl.limit, ResetAt: now.Add(rl.window)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := incrWindowScript.Run(ctx, rl.client,
		[]string{redisKeyPrefix + key}, rl.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		slog.Warn("Rate limit check failed, allowing request", "key", key, "error", err)
		return true, info
	}

	count, ttlMs := res[0], res[1]
	if ttlMs > 0 {
		info.ResetAt = now.Add(time.Duration(ttlMs) * time.Millisecond)
	}

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	info.Remaining = remaining

	if int(count) > rl.limit {
		info.RetryAfter = info.ResetAt.Sub(now)
		return false, info
	}

	return true, info
}

// Close releases the Redis connection.
func (rl *RedisLimiter) Close() {
	if err := rl.client.Close(); err != nil {
		slog.Warn("Failed to close redis client", "error", err)
	}
}
