package wel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicIsTimelyDetectsPatternKeyword(t *testing.T) {
	assert.True(t, HeuristicIsTimely("Breaking: the game is live right now"))
}

func TestHeuristicIsTimelyDetectsDate(t *testing.T) {
	assert.True(t, HeuristicIsTimely("Reported on 2026-03-01"))
}

func TestHeuristicIsTimelyFalseForStableFact(t *testing.T) {
	assert.False(t, HeuristicIsTimely("Water boils at 100 degrees Celsius at sea level"))
}

func TestHeuristicIsTimelyEmptyClaim(t *testing.T) {
	assert.False(t, HeuristicIsTimely(""))
}
