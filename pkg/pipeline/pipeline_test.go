package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/retrieval"
	"github.com/proofline/proofline/pkg/samplecache"
	"github.com/proofline/proofline/pkg/schema"
)

type fakeAudit struct {
	records []schema.RunRecord
}

func (f *fakeAudit) InsertRunRecord(_ context.Context, rec schema.RunRecord) error {
	f.records = append(f.records, rec)
	return nil
}

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

func newTestPipeline(t *testing.T, audit AuditRecorder) *Pipeline {
	t.Helper()
	cache := samplecache.New(256, time.Minute, nil, 0)
	runCache := samplecache.New(256, time.Minute, nil, 0)
	limiter := ratelimit.NewRegistry(1000, 1000)
	opts := []Option{WithRunCache(runCache)}
	if audit != nil {
		opts = append(opts, WithAudit(audit))
	}
	return New(provider.Default, cache, limiter, opts...)
}

func TestRunBaselineProducesValidResponse(t *testing.T) {
	audit := &fakeAudit{}
	p := newTestPipeline(t, audit)
	cfg := config.DefaultRunConfig("the sky is blue during a clear day")
	cfg.Mode = config.ModeBaseline
	cfg.Mock = true
	cfg.K, cfg.R, cfg.B = 6, 2, 200

	resp, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, resp.Combined.P, 0.0)
	assert.LessOrEqual(t, resp.Combined.P, 1.0)
	assert.LessOrEqual(t, resp.Combined.CI95[0], resp.Combined.P)
	assert.GreaterOrEqual(t, resp.Combined.CI95[1], resp.Combined.P)
	assert.InDelta(t, 1.0, resp.Combined.WeightPrior+resp.Combined.WeightWeb, 1e-6)
	assert.Equal(t, "baseline", resp.Mode)
	assert.Nil(t, resp.Web)
	assert.NotEmpty(t, resp.ExecutionID)
	assert.NotEmpty(t, resp.RunID)
	assert.NotNil(t, resp.SimpleExpl)
	require.Len(t, audit.records, 1)
	assert.Equal(t, resp.RunID, audit.records[0].RunID)
}

func TestRunWebInformedMockMirrorsPrior(t *testing.T) {
	p := newTestPipeline(t, nil)
	cfg := config.DefaultRunConfig("RPL regression reference claim")
	cfg.Mode = config.ModeWebInformed
	cfg.Mock = true
	cfg.K, cfg.R, cfg.B = 6, 2, 200
	cfg.Seed = int64Ptr(777)

	resp, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Web)
	assert.Equal(t, resp.Prior.P, resp.Web.P)
	require.NotNil(t, resp.Weights)
	assert.Equal(t, 0.0, resp.Weights.Web)
	assert.Equal(t, resp.Prior.P, resp.Combined.P)
}

func TestRunRejectsOverlongPromptAndWritesNoRecord(t *testing.T) {
	audit := &fakeAudit{}
	p := newTestPipeline(t, audit)
	cfg := config.DefaultRunConfig("a very long claim that should blow well past a tiny character budget for this run")
	cfg.Mock = true
	tiny := 50
	cfg.MaxPromptChars = &tiny
	cfg.K, cfg.R = 2, 1

	_, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.Error(t, err)

	appErr, ok := err.(*schema.AppError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrorTypePromptTooLong, appErr.Type)
	assert.Empty(t, audit.records, "no RunRecord should be written on a failed run")
}

func TestRunCacheIdempotence(t *testing.T) {
	p := newTestPipeline(t, nil)
	cfg := config.DefaultRunConfig("cache idempotence claim")
	cfg.Mock = true
	cfg.K, cfg.R, cfg.B = 4, 1, 100

	cfg.NoCache = true
	r1, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r1.Aggregates.CacheHitRate)

	cfg.NoCache = false
	r2, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r2.Aggregates.CacheHitRate, 0.9)

	cfg.NoCache = true
	r3, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r3.Aggregates.CacheHitRate)
}

func TestRunReplaysCachedResponseAsideFromExecutionID(t *testing.T) {
	p := newTestPipeline(t, nil)
	cfg := config.DefaultRunConfig("replay idempotence claim")
	cfg.Mock = true
	cfg.K, cfg.R, cfg.B = 4, 1, 100
	cfg.Seed = int64Ptr(42)

	r1, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)
	r2, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ExecutionID, r2.ExecutionID)
	assert.Equal(t, r1.Combined, r2.Combined)
	assert.Equal(t, r1.RunID, r2.RunID)
}

// resolverFixtureScorer distinguishes which sub-call it is answering (RPL
// sampling, WEL stance scoring, or a resolver doc-verdict judgment) by
// inspecting the system text each call path hardcodes, since all three
// share one provider.Scorer contract.
func resolverFixtureScorer(ctx context.Context, req provider.Request) (provider.Result, error) {
	switch {
	case strings.Contains(req.SystemText, "meticulous fact checker"):
		return provider.Result{RawText: `{"stance":"support","quote":"Team Foo won the championship.","field":"winner","value":"Team Foo"}`}, nil
	case strings.Contains(req.SystemText, "Web Evidence Lens"):
		return provider.Result{RawText: `{"stance_prob_true": 0.92, "stance_label": "supports", "support_bullets": ["multiple sources agree"], "oppose_bullets": [], "notes": []}`}, nil
	default:
		return provider.ScoreMock(ctx, req)
	}
}

func TestRunResolverFiringPinsCombinedToward1(t *testing.T) {
	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(provider.ScoreMock, provider.MockAlias))
	require.NoError(t, reg.Register(resolverFixtureScorer, "resolver-fixture"))

	cache := samplecache.New(256, time.Minute, nil, 0)
	limiter := ratelimit.NewRegistry(1000, 1000)

	now := time.Now().UTC()
	docs := []retrieval.Doc{
		{URL: "https://apnews.com/a", Domain: "apnews.com", Title: "Team Foo wins championship", Snippet: "Team Foo won the championship game yesterday.", PublishedAt: &now},
		{URL: "https://reuters.com/b", Domain: "reuters.com", Title: "Championship recap", Snippet: "Team Foo took home the trophy.", PublishedAt: &now},
		{URL: "https://bbc.com/c", Domain: "bbc.com", Title: "Foo triumphs", Snippet: "The championship went to Team Foo.", PublishedAt: &now},
	}

	p := New(reg, cache, limiter, WithRetriever(retrieval.MockRetriever{Docs: docs}))

	cfg := config.DefaultRunConfig("Team Foo won the championship")
	cfg.Model = "resolver-fixture"
	cfg.Mode = config.ModeWebInformed
	cfg.K, cfg.R, cfg.B = 4, 1, 100

	resp, err := p.Run(context.Background(), cfg, testBundle(), nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Web)
	assert.True(t, resp.Web.Resolved)
	require.NotNil(t, resp.Web.ResolvedTruth)
	assert.True(t, *resp.Web.ResolvedTruth)
	assert.Equal(t, 1.0, resp.Combined.WeightWeb)
	assert.GreaterOrEqual(t, resp.Combined.P, 0.90)
	assert.Equal(t, schema.LabelLikelyTrue, resp.Combined.Label)
}

func int64Ptr(v int64) *int64 { return &v }
