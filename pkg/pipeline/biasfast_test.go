package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/samplecache"
)

func TestRunBiasFastScoresEveryPairIndependently(t *testing.T) {
	cache := samplecache.New(256, time.Minute, nil, 0)
	limiter := ratelimit.NewRegistry(1000, 1000)
	p := New(provider.Default, cache, limiter)

	cfg := config.DefaultRunConfig("bias sweep claim")
	cfg.Mock = true
	cfg.K, cfg.R, cfg.B = 4, 1, 100

	pairs := []ModelPair{
		{Provider: "openai", Model: "mock"},
		{Provider: "anthropic", Model: "mock"},
		{Provider: "google", Model: "mock"},
	}

	results := p.RunBiasFast(context.Background(), cfg, testBundle(), pairs)
	require.Len(t, results, len(pairs))
	for i, r := range results {
		assert.Equal(t, pairs[i], r.Pair)
		require.NoError(t, r.Err)
		assert.GreaterOrEqual(t, r.Response.Combined.P, 0.0)
		assert.LessOrEqual(t, r.Response.Combined.P, 1.0)
	}
}
