package wel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/schema"
)

func stanceScorer(rawText string) provider.Scorer {
	return func(ctx context.Context, req provider.Request) (provider.Result, error) {
		return provider.Result{RawText: rawText}, nil
	}
}

func TestRunProducesWebBlockFromReplicates(t *testing.T) {
	raw := `{"stance_prob_true":0.65,"stance_label":"supports","support_bullets":["doc says so"],"oppose_bullets":[],"notes":[]}`
	docs := []schema.Doc{
		{URL: "https://a.com/1", Domain: "a.com", Title: "t1", Snippet: "snippet one"},
		{URL: "https://b.com/2", Domain: "b.com", Title: "t2", Snippet: "snippet two"},
	}
	block, reps, err := Run(context.Background(), stanceScorer(raw), "some unresolvable claim about flavor", docs, DefaultOptions("mock"))
	require.NoError(t, err)
	assert.Len(t, reps, 2)
	assert.InDelta(t, 0.65, block.P, 1e-6)
	assert.False(t, block.Resolved)
	assert.Equal(t, 2.0, block.EvidenceStats["n_docs"])
}

func TestRunAllReplicatesFailReturnsError(t *testing.T) {
	scorer := func(ctx context.Context, req provider.Request) (provider.Result, error) {
		return provider.Result{RawText: "garbage, not json"}, nil
	}
	docs := []schema.Doc{{URL: "https://a.com/1", Domain: "a.com"}}
	_, reps, err := Run(context.Background(), scorer, "claim", docs, DefaultOptions("mock"))
	assert.Error(t, err)
	assert.Len(t, reps, 2)
	for _, r := range reps {
		assert.False(t, r.JSONValid)
	}
}

func TestRunResolvesEventOutcomeWithConsensus(t *testing.T) {
	stanceRaw := `{"stance_prob_true":0.9,"stance_label":"supports","support_bullets":["x"],"oppose_bullets":[],"notes":[]}`
	verdictRaw := `{"stance":"support","quote":"exact verbatim text","field":"winner","value":"Team A"}`
	calls := 0
	scorer := func(ctx context.Context, req provider.Request) (provider.Result, error) {
		calls++
		if req.UserTemplate == docVerdictInstructions {
			return provider.Result{RawText: verdictRaw}, nil
		}
		return provider.Result{RawText: stanceRaw}, nil
	}
	docs := []schema.Doc{
		{URL: "https://apnews.com/1", Domain: "apnews.com", Snippet: "Team A won the championship"},
		{URL: "https://reuters.com/2", Domain: "reuters.com", Snippet: "Team A clinched the title"},
	}
	block, _, err := Run(context.Background(), scorer, "Team A won the championship", docs, DefaultOptions("mock"))
	require.NoError(t, err)
	assert.True(t, block.Resolved)
	require.NotNil(t, block.ResolvedTruth)
	assert.True(t, *block.ResolvedTruth)
	assert.InDelta(t, 0.95, block.P, 1e-9)
	assert.Greater(t, calls, 0)
}
