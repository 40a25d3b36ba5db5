package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/resilience"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("not a url", logger.Nop())
	assert.Error(t, err)
}

func TestUserNamesDegradesToMissWhenUnreachable(t *testing.T) {
	// nothing listens on port 1
	client, err := NewRedisClient("redis://127.0.0.1:1/0", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	names := NewUserNames(client, time.Minute)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		names.Set(ctx, 1, "Ada")
		_, ok := names.Get(ctx, 1)
		assert.False(t, ok)
	}

	assert.Equal(t, resilience.StateOpen, client.Breaker().State())
	_, err = client.Get(ctx, "user:name:1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestUserNameKey(t *testing.T) {
	assert.Equal(t, "user:name:42", userNameKey(42))
}

func TestIsMiss(t *testing.T) {
	assert.True(t, isMiss(redis.Nil))
	assert.True(t, isMiss(fmt.Errorf("get: %w", redis.Nil)))
	assert.False(t, isMiss(resilience.ErrCircuitOpen))
}

func TestUserNamesForgetGoesThroughBreaker(t *testing.T) {
	client, err := NewRedisClient("redis://127.0.0.1:1/0", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	names := NewUserNames(client, time.Minute)
	names.Forget(context.Background(), 7)

	stats := client.Breaker().Stats()
	assert.Equal(t, uint64(1), stats.TotalRequests)
	assert.Equal(t, uint64(1), stats.TotalFailures)
}
