package ratelimit

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient returns a client pointed at a port nothing listens on.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestNewRedisLimiter_UnreachableServer(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	_, err := NewRedisLimiter(client, 100, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestRedisLimiter_Allow_FailsOpen(t *testing.T) {
	// A limiter whose Redis connection drops mid-flight must degrade to
	// unlimited rather than reject all traffic.
	limiter := &RedisLimiter{
		client: unreachableClient(),
		limit:  100,
		window: time.Minute,
	}
	defer limiter.Close()

	allowed, info := limiter.Allow("test-license-123")

	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)
	assert.Equal(t, 100, info.Remaining)
	assert.False(t, info.ResetAt.IsZero())
	assert.Zero(t, info.RetryAfter)
}

func TestRedisLimiter_ImplementsLimiter(t *testing.T) {
	var _ Limiter = (*RedisLimiter)(nil)
}
