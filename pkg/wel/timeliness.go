package wel

import "regexp"

var timelyPatternRe = regexp.MustCompile(`(?i)\b(` +
	`today|tonight|tomorrow|yesterday|this (?:week|month|quarter|year)|` +
	`live|breaking|earnings|poll|primary|debate|game|match|vs\.?|odds|line|` +
	`forecast|update|recent|latest|current|reigning|defending` +
	`)\b`)

var timelyDateRe = regexp.MustCompile(`(?i)\b(` +
	`(?:20\d{2})-\d{2}-\d{2}|` +
	`jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec` +
	`)\b`)

// HeuristicIsTimely is a lightweight detector for claims likely to need
// fresh evidence, used to weight recency when fusing prior and web
// estimates.
func HeuristicIsTimely(claim string) bool {
	if claim == "" {
		return false
	}
	return timelyPatternRe.MatchString(claim) || timelyDateRe.MatchString(claim)
}
