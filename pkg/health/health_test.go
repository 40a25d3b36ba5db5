package health

import (
	"context"
	"errors"
	"testing"

	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_DatabaseIsCritical(t *testing.T) {
	c := NewChecker(logger.Nop(), 0)

	var dbErr error
	c.RegisterDatabaseCheck(func(context.Context) error { return dbErr })

	// nothing has run yet
	assert.False(t, c.IsSystemHealthy())

	c.RunChecks(context.Background())
	assert.True(t, c.IsSystemHealthy())
	assert.Equal(t, StatusUp, c.GetStatus()["database"].Status)

	dbErr = errors.New("connection refused")
	c.RunChecks(context.Background())
	assert.False(t, c.IsSystemHealthy())

	status := c.GetStatus()
	require.Contains(t, status, "database")
	assert.Equal(t, StatusDown, status["database"].Status)
	assert.Equal(t, "connection refused", status["database"].Error)
}

func TestChecker_DependencyDegrades(t *testing.T) {
	c := NewChecker(logger.Nop(), 0)
	cb := resilience.NewCircuitBreaker(resilience.DefaultConfig("redis"), logger.Nop())
	c.RegisterDatabaseCheck(func(context.Context) error { return nil })
	c.RegisterDependencyCheck("redis", cb, func(context.Context) error { return errors.New("timeout") })

	c.RunChecks(context.Background())

	assert.True(t, c.IsSystemHealthy())
	assert.Equal(t, StatusDegraded, c.GetStatus()["redis"].Status)
}

func TestChecker_OpenBreakerDegradesWithoutPinging(t *testing.T) {
	c := NewChecker(logger.Nop(), 0)
	cfg := resilience.DefaultConfig("github")
	cfg.FailureThreshold = 2
	cb := resilience.NewCircuitBreaker(cfg, logger.Nop())

	pings := 0
	c.RegisterDependencyCheck("github", cb, func(context.Context) error {
		pings++
		return nil
	})

	c.RunChecks(context.Background())
	assert.Equal(t, StatusUp, c.GetStatus()["github"].Status)
	assert.Equal(t, 1, pings)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return boom })
	}
	require.Equal(t, resilience.StateOpen, cb.State())

	c.RunChecks(context.Background())
	status := c.GetStatus()["github"]
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Contains(t, status.Description, "2 failures")
	assert.Equal(t, 1, pings)
	assert.True(t, c.IsSystemHealthy())
}

func TestChecker_GetStatusReturnsCopies(t *testing.T) {
	c := NewChecker(logger.Nop(), 0)
	c.RunChecks(context.Background())

	status := c.GetStatus()
	status["self"].Status = StatusDown

	assert.Equal(t, StatusUp, c.GetStatus()["self"].Status)
}
