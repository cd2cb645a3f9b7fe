package retrieval

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSnippetTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeSnippetText("  a\n b\t  c "))
}

func TestDedupeByURLPrefersFirstSeen(t *testing.T) {
	docs := []Doc{
		{URL: "https://a.com/1", Title: "first"},
		{URL: "https://a.com/1", Title: "duplicate"},
		{URL: "https://b.com/2", Title: "second"},
	}
	out := DedupeByURL(docs)
	assert.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
}

func TestDedupeByURLFallsBackToTitleWhenURLEmpty(t *testing.T) {
	docs := []Doc{{Title: "only title"}, {Title: "only title"}}
	out := DedupeByURL(docs)
	assert.Len(t, out, 1)
}

func TestCapPerDomainLimitsEachDomain(t *testing.T) {
	docs := []Doc{
		{Domain: "a.com", URL: "1"}, {Domain: "a.com", URL: "2"}, {Domain: "a.com", URL: "3"},
		{Domain: "b.com", URL: "4"},
	}
	out := CapPerDomain(docs, 2)
	assert.Len(t, out, 3)
}

func TestMedianAgeDaysComputesMedianOverConfidentDocs(t *testing.T) {
	now := time.Now().UTC()
	d1 := now.Add(-24 * time.Hour)
	d2 := now.Add(-48 * time.Hour)
	docs := []Doc{
		{PublishedAt: &d1, PublishedConfidence: 1.0},
		{PublishedAt: &d2, PublishedConfidence: 1.0},
	}
	age := MedianAgeDays(docs, 0)
	assert.InDelta(t, 1.5, age, 0.05)
}

func TestMedianAgeDaysNaNWhenNoConfidentDocs(t *testing.T) {
	age := MedianAgeDays(nil, 0)
	assert.True(t, math.IsNaN(age))
}

func TestEvidenceMetricsCountsDomainsAndDocs(t *testing.T) {
	docs := []Doc{{Domain: "a.com"}, {Domain: "a.com"}, {Domain: "b.com"}}
	m := EvidenceMetrics(docs)
	assert.Equal(t, 3.0, m["n_docs"])
	assert.Equal(t, 2.0, m["n_domains"])
}

func TestPackSnippetsForLLMTruncatesToMaxChars(t *testing.T) {
	docs := []Doc{{Domain: "a.com", Title: "t", Snippet: "a long snippet body text"}}
	out := PackSnippetsForLLM("some claim", docs, 20)
	assert.LessOrEqual(t, len(out), 20)
}
