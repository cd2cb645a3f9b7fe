package samplecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// SampleKeyInput identifies everything that makes one RPL sample unique,
// matching make_cache_key's field list exactly.
type SampleKeyInput struct {
	Claim           string
	Model           string
	PromptVersion   string
	PromptSHA256    string
	ReplicateIdx    int
	MaxOutputTokens int
	ProviderMode    string
}

// MakeSampleCacheKey hashes a SampleKeyInput the same way
// heretix/cache.py's make_cache_key does: pipe-joined fields, SHA-256 hex.
func MakeSampleCacheKey(in SampleKeyInput) string {
	s := fmt.Sprintf("%s|%s|%s|%s|%d|%d|%s",
		in.Claim, in.Model, in.PromptVersion, in.PromptSHA256,
		in.ReplicateIdx, in.MaxOutputTokens, in.ProviderMode)
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// RunKeyInput identifies everything that makes one full RPL run unique,
// matching make_run_cache_key's field list exactly.
type RunKeyInput struct {
	Claim           string
	Model           string
	Provider        string
	PromptVersion   string
	K               int
	R               int
	T               int
	MaxOutputTokens int
	ProviderMode    string
	TargetB         int
	SeedMarker      string
}

// MakeRunCacheKey hashes a RunKeyInput the same way
// heretix/cache.py's make_run_cache_key does.
func MakeRunCacheKey(in RunKeyInput) string {
	s := fmt.Sprintf("%s|%s|%s|%s|K=%d|R=%d|T=%d|max_out=%d|%s|B=%d|seed=%s",
		in.Claim, in.Model, in.Provider, in.PromptVersion,
		in.K, in.R, in.T, in.MaxOutputTokens, in.ProviderMode, in.TargetB, in.SeedMarker)
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Cache is the two-layer read-through/write-through cache: a fast
// in-process TTLCache sits in front of a durable Backend, matching
// sample_cache_get/set and run_cache_get/set's composition.
type Cache struct {
	front   *TTLCache[[]byte]
	backend Backend
	ttl     time.Duration
}

// New builds a two-layer cache. frontMaxItems/frontTTL size the in-process
// layer; backend may be nil to disable durable storage entirely (pure
// in-process caching, used by MOCK-mode smoke runs).
func New(frontMaxItems int, frontTTL time.Duration, backend Backend, backendTTL time.Duration) *Cache {
	return &Cache{
		front:   NewTTLCache[[]byte](frontMaxItems, frontTTL),
		backend: backend,
		ttl:     backendTTL,
	}
}

// Get checks the in-process layer first, then the durable backend,
// populating the in-process layer on a backend hit (read-through).
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	if raw, ok := c.front.Get(key); ok {
		return true, json.Unmarshal(raw, out)
	}
	if c.backend == nil {
		return false, nil
	}
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	c.front.Set(key, raw)
	return true, json.Unmarshal(raw, out)
}

// Set writes through both layers.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.front.Set(key, raw)
	if c.backend == nil {
		return nil
	}
	return c.backend.Set(ctx, key, raw, c.ttl)
}

// Configure adjusts the in-process layer's capacity/TTL at runtime,
// matching configure_runtime_caches.
func (c *Cache) Configure(maxItems, ttlSeconds int) {
	c.front.Configure(maxItems, ttlSeconds)
}

// DefaultSampleTTL and DefaultRunTTL match heretix/cache.py's default
// ttl_seconds arguments for sample_cache_get (900s) and run_cache_get
// (259200s, i.e. 3 days).
const (
	DefaultSampleTTL = 900 * time.Second
	DefaultRunTTL    = 259200 * time.Second
)
