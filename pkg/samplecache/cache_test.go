package samplecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeSampleCacheKeyIsDeterministic(t *testing.T) {
	in := SampleKeyInput{
		Claim: "water boils at 100C", Model: "gpt-5", PromptVersion: "v1",
		PromptSHA256: "abc", ReplicateIdx: 2, MaxOutputTokens: 512, ProviderMode: "LIVE",
	}
	assert.Equal(t, MakeSampleCacheKey(in), MakeSampleCacheKey(in))
}

func TestMakeSampleCacheKeyChangesWithReplicateIdx(t *testing.T) {
	in := SampleKeyInput{Claim: "c", Model: "m", PromptVersion: "v1", PromptSHA256: "h", ReplicateIdx: 1, MaxOutputTokens: 10, ProviderMode: "LIVE"}
	in2 := in
	in2.ReplicateIdx = 2
	assert.NotEqual(t, MakeSampleCacheKey(in), MakeSampleCacheKey(in2))
}

func TestMakeRunCacheKeyIsDeterministic(t *testing.T) {
	in := RunKeyInput{Claim: "c", Model: "m", Provider: "openai", PromptVersion: "v1", K: 20, R: 5, T: 8, MaxOutputTokens: 512, ProviderMode: "LIVE", TargetB: 5000, SeedMarker: "seed1"}
	assert.Equal(t, MakeRunCacheKey(in), MakeRunCacheKey(in))
}

type memoryStruct struct {
	Value string `json:"value"`
}

func TestCacheGetSetRoundTripsThroughFrontLayer(t *testing.T) {
	c := New(16, time.Minute, nil, 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k1", memoryStruct{Value: "hello"}))

	var out memoryStruct
	hit, err := c.Get(ctx, "k1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hello", out.Value)
}

func TestCacheMissWithoutBackendReturnsFalse(t *testing.T) {
	c := New(16, time.Minute, nil, 0)
	var out memoryStruct
	hit, err := c.Get(context.Background(), "nope", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheReadsThroughBackendAndPopulatesFront(t *testing.T) {
	backend := NewMemoryBackend(16, time.Minute)
	c := New(16, time.Minute, backend, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", memoryStruct{Value: "world"}))

	// A fresh cache sharing the same backend should read through on miss.
	c2 := New(16, time.Minute, backend, time.Minute)
	var out memoryStruct
	hit, err := c2.Get(ctx, "k1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "world", out.Value)
}

func TestCacheConfigureAdjustsFrontCapacity(t *testing.T) {
	c := New(16, time.Minute, nil, 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", memoryStruct{Value: "1"}))
	require.NoError(t, c.Set(ctx, "b", memoryStruct{Value: "2"}))
	c.Configure(1, 0)
	assert.Equal(t, 1, c.front.Len())
}
