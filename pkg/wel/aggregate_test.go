package wel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineReplicateProbsSingleReplicateWideBand(t *testing.T) {
	result, err := CombineReplicateProbs([]float64{0.8})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.P, 1e-9)
	assert.Equal(t, 0.0, result.Dispersion)
	assert.Less(t, result.CI95[0], 0.8)
	assert.Greater(t, result.CI95[1], 0.8)
}

func TestCombineReplicateProbsMultipleReplicatesNarrowerBand(t *testing.T) {
	result, err := CombineReplicateProbs([]float64{0.75, 0.78, 0.80, 0.77})
	require.NoError(t, err)
	assert.Greater(t, result.P, 0.7)
	assert.Less(t, result.CI95[1]-result.CI95[0], 1.0)
}

func TestCombineReplicateProbsAgreementGivesTightBand(t *testing.T) {
	result, err := CombineReplicateProbs([]float64{0.6, 0.6, 0.6})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, result.P, 1e-6)
	assert.InDelta(t, 0.0, result.Dispersion, 1e-9)
}

func TestCombineReplicateProbsEmptyErrors(t *testing.T) {
	_, err := CombineReplicateProbs(nil)
	assert.Error(t, err)
}

func TestCombineReplicateProbsCIContainsEstimate(t *testing.T) {
	result, err := CombineReplicateProbs([]float64{0.3, 0.9})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.P, result.CI95[0])
	assert.LessOrEqual(t, result.P, result.CI95[1])
}

func TestPercentileInterpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, percentile(sorted, 50), 1e-9)
}

func TestStddevZeroForSingleValue(t *testing.T) {
	assert.Equal(t, 0.0, stddev([]float64{5}))
	assert.False(t, math.IsNaN(stddev([]float64{5})))
}
