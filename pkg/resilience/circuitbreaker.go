package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"rvsync/backend/pkg/logger"
)

// ErrCircuitOpen is returned without calling the wrapped function while the breaker is open
var ErrCircuitOpen = errors.New("circuit open")

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen short-circuits every call until RetryTimeout passes
	StateOpen State = "open"
	// StateHalfOpen lets trial calls through to check for recovery
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	// Timeout bounds a single call
	Timeout time.Duration
	// RetryTimeout is how long the breaker stays open
	RetryTimeout time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          500 * time.Millisecond,
		RetryTimeout:     30 * time.Second,
	}
}

// Stats is a snapshot of breaker counters
type Stats struct {
	State         State
	TotalRequests uint64
	TotalFailures uint64
	TotalRejected uint64
	OpenedCount   uint64
	LastFailureAt time.Time
}

// CircuitBreaker stops calling a failing dependency for a while
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu           sync.Mutex
	state        State
	failureCount uint
	successCount uint
	nextAttempt  time.Time
	stats        Stats
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		state: StateClosed,
	}
}

// Execute runs fn through the breaker, bounding it by the configured timeout
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	if cb.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cb.cfg.Timeout)
		defer cancel()
	}

	if err := fn(ctx); err != nil {
		cb.recordFailure(err)
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttempt) {
			cb.stats.TotalRejected++
			return false
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		cb.log.Info("Circuit breaker half-open", "name", cb.cfg.Name)
		return true
	case StateHalfOpen:
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.stats.TotalRejected++
			return false
		}
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.log.Info("Circuit breaker closed", "name", cb.cfg.Name)
		}
	}
}

func (cb *CircuitBreaker) recordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalFailures++
	cb.stats.LastFailureAt = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.open(err)
		}
	case StateHalfOpen:
		cb.open(err)
	}
}

// open transitions to StateOpen. Caller holds the lock.
func (cb *CircuitBreaker) open(err error) {
	cb.state = StateOpen
	cb.stats.OpenedCount++
	cb.nextAttempt = cb.now().Add(cb.cfg.RetryTimeout)

	cb.log.Warn("Circuit breaker opened",
		"name", cb.cfg.Name,
		"error", err.Error(),
		"next_attempt", cb.nextAttempt.Format(time.RFC3339),
	)
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.State = cb.state
	return s
}
