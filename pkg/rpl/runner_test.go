package rpl

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

func testBundle() config.PromptBundle {
	return config.PromptBundle{
		Version:      "test_v1",
		System:       "You are a careful evaluator.",
		UserTemplate: "Evaluate: {CLAIM}",
		Paraphrases: []string{
			"Is it true that {CLAIM}?",
			"Assess the claim: {CLAIM}",
			"Determine whether {CLAIM}",
		},
	}
}

func newTestRunner() *Runner {
	cache := samplecache.New(256, time.Minute, nil, 0)
	limiter := ratelimit.NewRegistry(1000, 1000)
	return NewRunner(provider.Default, cache, limiter)
}

func TestRunSingleVersionProducesValidAggregate(t *testing.T) {
	rn := newTestRunner()
	cfg := config.DefaultRunConfig("the sky is blue during a clear day")
	cfg.K = 6
	cfg.R = 2
	cfg.B = 200

	res, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	require.NoError(t, err)
	assert.Greater(t, res.ValidCount, 0)
	assert.GreaterOrEqual(t, res.Aggregate.ProbTrue, 0.0)
	assert.LessOrEqual(t, res.Aggregate.ProbTrue, 1.0)
	assert.LessOrEqual(t, res.Aggregate.CI95[0], res.Aggregate.ProbTrue)
	assert.GreaterOrEqual(t, res.Aggregate.CI95[1], res.Aggregate.ProbTrue)
	assert.Contains(t, res.RunID, "proofline-rpl-")
}

func TestRunSingleVersionIsDeterministicWithFixedSeed(t *testing.T) {
	rn := newTestRunner()
	seedVal := int64(12345)
	cfg := config.DefaultRunConfig("water boils at 100C at sea level")
	cfg.K = 6
	cfg.R = 2
	cfg.B = 200
	cfg.Seed = &seedVal
	cfg.NoCache = true

	r1, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	require.NoError(t, err)
	r2, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	require.NoError(t, err)
	assert.Equal(t, r1.Aggregate.ProbTrue, r2.Aggregate.ProbTrue)
	assert.Equal(t, r1.Aggregate.CI95, r2.Aggregate.CI95)
}

func TestRunSingleVersionRejectsEmptyPromptBundle(t *testing.T) {
	rn := newTestRunner()
	cfg := config.DefaultRunConfig("claim")
	_, err := rn.RunSingleVersion(context.Background(), cfg, config.PromptBundle{}, "MOCK")
	assert.Error(t, err)
}

func TestRunSingleVersionEnforcesMaxPromptChars(t *testing.T) {
	rn := newTestRunner()
	cfg := config.DefaultRunConfig("a very long claim that should blow past a tiny character budget")
	tiny := 10
	cfg.MaxPromptChars = &tiny
	cfg.K = 2
	cfg.R = 1

	_, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	assert.Error(t, err)
}

func TestRunSingleVersionUsesCacheOnSecondRun(t *testing.T) {
	rn := newTestRunner()
	cfg := config.DefaultRunConfig("claim for cache test")
	cfg.K = 4
	cfg.R = 1
	cfg.B = 100

	_, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	require.NoError(t, err)

	res2, err := rn.RunSingleVersion(context.Background(), cfg, testBundle(), "MOCK")
	require.NoError(t, err)
	assert.Greater(t, res2.CacheHits, 0, "second identical run should hit the sample cache")
}
