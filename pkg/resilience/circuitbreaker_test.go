package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"rvsync/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func fail(context.Context) error { return errBoom }
func ok(context.Context) error { return nil }

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(Config{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, logger.Nop())
	now := time.Now()
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())

	stats := cb.Stats()
	assert.Equal(t, uint64(2), stats.TotalFailures)
	assert.Equal(t, uint64(1), stats.TotalRejected)
	assert.Equal(t, uint64(1), stats.OpenedCount)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 1, RetryTimeout: time.Second}, logger.Nop())
	now := time.Now()
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	now = now.Add(2 * time.Second)
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, ok), ErrCircuitOpen)
}

func TestCircuitBreakerTimeoutReachesFn(t *testing.T) {
	cb := NewCircuitBreaker(Config{FailureThreshold: 3, Timeout: 10 * time.Millisecond}, logger.Nop())

	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
