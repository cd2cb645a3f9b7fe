package samplecache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is the pluggable durable storage layer sitting behind the
// in-process TTLCache, mirroring heretix/cache.py's SQLite-backed
// get_cached_sample/get_cached_run/set_cached_run trio behind a swappable
// interface (per the teacher's §9 "artifact-store polymorphism" note).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryBackend is an in-memory Backend, useful for MOCK-mode runs and
// tests where no durable store is configured.
type MemoryBackend struct {
	cache *TTLCache[[]byte]
}

// NewMemoryBackend creates a Backend with its own bounded TTL store.
func NewMemoryBackend(maxItems int, ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{cache: NewTTLCache[[]byte](maxItems, ttl)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.cache.Set(key, value)
	return nil
}

// RedisBackend stores cache entries durably in Redis, the idiomatic
// counterpart of kubernaut's go-redis/miniredis dependency pair. This
// module's tests only construct it; none run it against a Redis server.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing go-redis client. prefix namespaces
// keys (e.g. "proofline:sample:").
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}
