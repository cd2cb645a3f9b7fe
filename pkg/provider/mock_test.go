package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseMockRequest() Request {
	return Request{
		Claim:           "the sky is blue",
		SystemText:      "You are a careful evaluator.",
		UserTemplate:    "Evaluate: {CLAIM}",
		ParaphraseText:  "Is it true that {CLAIM}?",
		Model:           "gpt-5",
		MaxOutputTokens: 512,
	}
}

func TestScoreMockIsDeterministic(t *testing.T) {
	req := baseMockRequest()
	r1, err := ScoreMock(context.Background(), req)
	require.NoError(t, err)
	r2, err := ScoreMock(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, r1.RawText, r2.RawText)
	assert.Equal(t, r1.Meta.PromptSHA256, r2.Meta.PromptSHA256)
}

func TestScoreMockVariesByClaim(t *testing.T) {
	req1 := baseMockRequest()
	req2 := baseMockRequest()
	req2.Claim = "the sky is green"
	r1, _ := ScoreMock(context.Background(), req1)
	r2, _ := ScoreMock(context.Background(), req2)
	assert.NotEqual(t, r1.Meta.PromptSHA256, r2.Meta.PromptSHA256)
}

func TestScoreMockProbabilityWithinClippedRange(t *testing.T) {
	req := baseMockRequest()
	r, err := ScoreMock(context.Background(), req)
	require.NoError(t, err)

	var decoded struct {
		Belief struct {
			ProbTrue float64 `json:"prob_true"`
		} `json:"belief"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.RawText), &decoded))
	assert.GreaterOrEqual(t, decoded.Belief.ProbTrue, 0.05)
	assert.LessOrEqual(t, decoded.Belief.ProbTrue, 0.95)
}

func TestScoreMockRegisteredUnderMockAlias(t *testing.T) {
	fn, err := Default.Get("MOCK")
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestScoreMockMetaFields(t *testing.T) {
	r, err := ScoreMock(context.Background(), baseMockRequest())
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-MOCK", r.Meta.ProviderModelID)
	assert.Contains(t, r.Meta.ResponseID, "mock_")
	assert.Greater(t, r.Meta.CreatedUnix, 0.0)
}
