package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a thin wrapper that keeps every call behind a circuit breaker
type RedisClient struct {
	client  *redis.Client
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewRedisClient connects to a redis:// URL. The connection is lazy.
func NewRedisClient(url string, log *logger.Logger) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 500 * time.Millisecond
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.MaxRetries = -1

	return &RedisClient{
		client:  redis.NewClient(opts),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("redis"), log),
		log:     log.WithComponent("redis"),
	}, nil
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, expiration).Err()
	})
}

// Get returns redis.Nil for missing keys
func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	var (
		val  string
		miss bool
	)
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		v, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// a missing key is not a dependency failure
			miss = true
			return nil
		}
		val = v
		return err
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", redis.Nil
	}
	return val, nil
}

func (r *RedisClient) Del(ctx context.Context, key string) error {
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
}

// Ping checks connectivity for health reporting
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Breaker exposes the circuit breaker for health reporting
func (r *RedisClient) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}

func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// UserNames caches user display names
type UserNames struct {
	client *RedisClient
	ttl    time.Duration
}

func NewUserNames(client *RedisClient, ttl time.Duration) *UserNames {
	return &UserNames{client: client, ttl: ttl}
}

func userNameKey(id uint) string {
	return "user:name:" + strconv.FormatUint(uint64(id), 10)
}

// Get returns the cached name. Any redis failure is reported as a miss.
func (u *UserNames) Get(ctx context.Context, id uint) (string, bool) {
	name, err := u.client.Get(ctx, userNameKey(id))
	if err != nil {
		if !isMiss(err) {
			u.client.log.Debug("name cache unavailable", "error", err)
		}
		return "", false
	}
	return name, true
}

func (u *UserNames) Set(ctx context.Context, id uint, name string) {
	_ = u.client.Set(ctx, userNameKey(id), name, u.ttl)
}

// Forget drops a cached name so the next lookup reads the database
func (u *UserNames) Forget(ctx context.Context, id uint) {
	if err := u.client.Del(ctx, userNameKey(id)); err != nil {
		u.client.log.Debug("name cache unavailable", "error", err)
	}
}
