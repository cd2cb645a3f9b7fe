// Package wel implements the Web-Evidence Lens: claim relation
// classification, replicate-level stance scoring over retrieved
// snippets, logit-space aggregation, and a deterministic resolver that
// can short-circuit a claim to resolved-true/resolved-false on strong
// multi-domain consensus. Grounded on
// original_source/heretix_wel/{claim_parse,timeliness,aggregate,
// resolved_engine,scoring,weights}.py.
package wel

import (
	"regexp"
	"strings"
	"time"
)

// RelationFamily is the closed set of claim shapes the resolver reasons
// about differently (original_source/heretix_wel/claim_parse.py).
type RelationFamily string

const (
	RelationEventOutcome   RelationFamily = "event_outcome"
	RelationIdentityRole   RelationFamily = "identity_role"
	RelationNumericValue   RelationFamily = "numeric_value"
	RelationExistenceDate  RelationFamily = "existence_date"
	RelationMembership     RelationFamily = "membership"
	RelationUnknown        RelationFamily = "unknown"
)

var yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var relationKeywords = []struct {
	family   RelationFamily
	keywords []string
}{
	{RelationEventOutcome, []string{"won", "defeated", "champion", "trophy", "victory"}},
	{RelationIdentityRole, []string{"ceo", "president", "headquartered", "capital", "located in", "is the leader"}},
	{RelationNumericValue, []string{"population", "price", "worth", "revenue", "salary", "net worth", "percent", "%"}},
	{RelationExistenceDate, []string{"happened", "occurred", "took place", "released", "launched", "died", "born"}},
	{RelationMembership, []string{"member of", "listed on", "part of", "belongs to", "is in"}},
}

var futureSignals = []string{"will ", "will be", "going to", "next year", "upcoming"}
var presentSignals = []string{"is the", "are the", "currently", "as of"}

// ClaimInfo is the parsed shape of one claim, carrying enough context for
// the resolver to decide whether attempting resolution is safe.
type ClaimInfo struct {
	Text                   string
	RelationFamily         RelationFamily
	Years                  []int
	ContainsFutureReference bool
	ContainsPastReference   bool
	IsTimeSensitive         bool
}

func detectRelationFamily(text string) RelationFamily {
	lower := strings.ToLower(text)
	for _, rk := range relationKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(lower, kw) {
				return rk.family
			}
		}
	}
	return RelationUnknown
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ParseClaim classifies a claim's relation family, extracts any four-digit
// years it references, and flags future/past/time-sensitivity signals,
// relative to today (pass zero time to use the current UTC time).
func ParseClaim(text string, today time.Time) ClaimInfo {
	if today.IsZero() {
		today = time.Now().UTC()
	}

	var years []int
	for _, m := range yearRegex.FindAllString(text, -1) {
		y := 0
		for _, c := range m {
			y = y*10 + int(c-'0')
		}
		years = append(years, y)
	}

	family := detectRelationFamily(text)

	containsFuture := false
	containsPast := false
	for _, y := range years {
		if y > today.Year() {
			containsFuture = true
		} else if y < today.Year() {
			containsPast = true
		}
	}

	lower := strings.ToLower(text)
	future := containsAny(lower, futureSignals)
	present := containsAny(lower, presentSignals)

	timeSensitive := future || family == RelationEventOutcome || family == RelationNumericValue

	return ClaimInfo{
		Text:                    text,
		RelationFamily:          family,
		Years:                   years,
		ContainsFutureReference: containsFuture || future,
		ContainsPastReference:   containsPast,
		IsTimeSensitive:         timeSensitive || present,
	}
}
