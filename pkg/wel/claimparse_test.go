package wel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClaimDetectsEventOutcome(t *testing.T) {
	info := ParseClaim("The Lakers won the championship in 2020", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, RelationEventOutcome, info.RelationFamily)
	assert.Contains(t, info.Years, 2020)
	assert.True(t, info.ContainsPastReference)
	assert.False(t, info.ContainsFutureReference)
}

func TestParseClaimDetectsIdentityRole(t *testing.T) {
	info := ParseClaim("Jane Doe is the CEO of Acme Corp", time.Time{})
	assert.Equal(t, RelationIdentityRole, info.RelationFamily)
}

func TestParseClaimDetectsNumericValue(t *testing.T) {
	info := ParseClaim("The city's population is 2 million", time.Time{})
	assert.Equal(t, RelationNumericValue, info.RelationFamily)
	assert.True(t, info.IsTimeSensitive)
}

func TestParseClaimDetectsFutureYear(t *testing.T) {
	info := ParseClaim("The tournament will conclude in 2099", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, info.ContainsFutureReference)
}

func TestParseClaimFutureSignalWithoutYear(t *testing.T) {
	info := ParseClaim("The team will win next year", time.Time{})
	assert.True(t, info.ContainsFutureReference)
}

func TestParseClaimDefaultsToUnknown(t *testing.T) {
	info := ParseClaim("The sky has a particular hue today", time.Time{})
	assert.Equal(t, RelationUnknown, info.RelationFamily)
}

func TestParseClaimMembership(t *testing.T) {
	info := ParseClaim("Sweden is a member of the EU", time.Time{})
	assert.Equal(t, RelationMembership, info.RelationFamily)
}

func TestParseClaimPresentSignalMarksTimeSensitive(t *testing.T) {
	info := ParseClaim("As of today the park is the largest in the state", time.Time{})
	assert.True(t, info.IsTimeSensitive)
}
