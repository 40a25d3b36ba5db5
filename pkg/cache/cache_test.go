package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpiry(t *testing.T) {
	c := New[string](Options{TTL: time.Minute})
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", "1")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.DeleteExpired()
	assert.Zero(t, c.Count())
}

func TestCacheMaxItems(t *testing.T) {
	c := New[int](Options{TTL: time.Minute, MaxItems: 2})
	base := time.Now()

	c.now = func() time.Time { return base }
	c.Set("first", 1)
	c.now = func() time.Time { return base.Add(time.Second) }
	c.Set("second", 2)
	c.Set("third", 3)

	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("third", 33)
	assert.Equal(t, 2, c.Count())
}

func TestCacheDelete(t *testing.T) {
	c := New[[]int](Options{})
	c.Set("k", []int{1})
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheFullPurgesExpiredFirst(t *testing.T) {
	c := New[int](Options{TTL: time.Minute, MaxItems: 2})
	base := time.Now()

	c.now = func() time.Time { return base }
	c.SetWithExpiration("short", 1, time.Second)
	c.Set("long", 2)

	c.now = func() time.Time { return base.Add(10 * time.Second) }
	c.Set("new", 3)

	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("long")
	assert.True(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
}
