package samplecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheSetGetRoundTrip(t *testing.T) {
	c := NewTTLCache[int](10, time.Minute)
	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTLCacheMissReturnsFalse(t *testing.T) {
	c := NewTTLCache[int](10, time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheExpiresEntries(t *testing.T) {
	c := NewTTLCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheEvictsOldestWhenFull(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestTTLCacheConfigureTrimsOverCapacity(t *testing.T) {
	c := NewTTLCache[int](5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Configure(1, 0)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheSetRefreshesExistingKey(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 99)
	c.Set("c", 3)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 99, v)
}
