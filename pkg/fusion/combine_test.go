package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proofline/proofline/pkg/schema"
)

func TestCombineWithoutWebReturnsPrior(t *testing.T) {
	prior := schema.PriorBlock{P: 0.62, CI95: [2]float64{0.5, 0.7}}
	out := Combine(Inputs{Prior: prior})
	assert.Equal(t, prior.P, out.P)
	assert.Equal(t, 1.0, out.WeightPrior)
	assert.Equal(t, 0.0, out.WeightWeb)
}

func TestCombineWithResolvedWebPinsToWebEstimate(t *testing.T) {
	prior := schema.PriorBlock{P: 0.55, CI95: [2]float64{0.4, 0.7}}
	truth := true
	web := &schema.WebBlock{P: 0.95, CI95: [2]float64{0.93, 0.97}, Resolved: true, ResolvedTruth: &truth}
	out := Combine(Inputs{Prior: prior, Web: web})
	assert.True(t, out.Resolved)
	assert.Equal(t, 0.95, out.P)
	assert.Equal(t, 1.0, out.WeightWeb)
}

func TestCombineBlendsUnresolvedWebWithPrior(t *testing.T) {
	prior := schema.PriorBlock{P: 0.4, CI95: [2]float64{0.3, 0.5}}
	web := &schema.WebBlock{P: 0.8, CI95: [2]float64{0.7, 0.9}}
	out := Combine(Inputs{
		Prior: prior, Web: web, ClaimIsTimely: true, MedianAgeDays: 1,
		NDocs: 10, NDomains: 4, Dispersion: 0.05, JSONValidRate: 1.0, TauDays: 7,
	})
	assert.Greater(t, out.P, prior.P)
	assert.Less(t, out.P, web.P)
	assert.Greater(t, out.WeightWeb, 0.0)
	assert.Less(t, out.WeightWeb, 1.0)
}

func TestCombineLabelThresholds(t *testing.T) {
	assert.Equal(t, schema.LabelLikelyTrue, schema.LabelFor(0.61))
	assert.Equal(t, schema.LabelLikelyFalse, schema.LabelFor(0.39))
	assert.Equal(t, schema.LabelUncertain, schema.LabelFor(0.5))
}
