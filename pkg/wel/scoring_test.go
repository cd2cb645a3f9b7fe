package wel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofline/proofline/pkg/provider"
)

func fakeWELScorer(rawText string, err error) provider.Scorer {
	return func(ctx context.Context, req provider.Request) (provider.Result, error) {
		if err != nil {
			return provider.Result{}, err
		}
		return provider.Result{RawText: rawText}, nil
	}
}

func TestCallWELOnceParsesValidResponse(t *testing.T) {
	raw := `{"stance_prob_true":0.7,"stance_label":"supports","support_bullets":["a"],"oppose_bullets":[],"notes":[]}`
	doc, hash, warnings, err := CallWELOnce(context.Background(), fakeWELScorer(raw, nil), "some claim", "bundle text", "mock")
	require.NoError(t, err)
	assert.Equal(t, 0.7, doc.StanceProbTrue)
	assert.Equal(t, "supports", string(doc.StanceLabel))
	assert.NotEmpty(t, hash)
	assert.Empty(t, warnings)
}

func TestCallWELOncePropagatesScorerError(t *testing.T) {
	_, _, _, err := CallWELOnce(context.Background(), fakeWELScorer("", assertErr), "claim", "bundle", "mock")
	assert.Error(t, err)
}

func TestCallWELOnceRejectsInvalidSchema(t *testing.T) {
	raw := `{"stance_prob_true": 1.7, "stance_label": "supports"}`
	_, _, _, err := CallWELOnce(context.Background(), fakeWELScorer(raw, nil), "claim", "bundle", "mock")
	assert.Error(t, err)
}

func TestCallWELOnceLenientlyCoercesStringNumber(t *testing.T) {
	raw := `{"stance_prob_true":"0.4","stance_label":"mixed","support_bullets":[],"oppose_bullets":[],"notes":[]}`
	doc, _, warnings, err := CallWELOnce(context.Background(), fakeWELScorer(raw, nil), "claim", "bundle", "mock")
	require.NoError(t, err)
	assert.Equal(t, 0.4, doc.StanceProbTrue)
	assert.Contains(t, warnings, "validation_coerced")
}

var assertErr = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
