package retrieval

import (
	"math"
	"sort"
	"strings"
	"time"
)

// NormalizeSnippetText collapses any run of whitespace to single spaces,
// matching heretix_wel/snippets.py's normalize_snippet_text.
func NormalizeSnippetText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// DedupeByURL drops documents sharing a URL (falling back to title when
// URL is empty), preserving first-seen order.
func DedupeByURL(docs []Doc) []Doc {
	seen := make(map[string]bool, len(docs))
	out := make([]Doc, 0, len(docs))
	for _, d := range docs {
		key := d.URL
		if key == "" {
			key = d.Title
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// CapPerDomain keeps at most maxPerDomain documents from each domain,
// preserving input order.
func CapPerDomain(docs []Doc, maxPerDomain int) []Doc {
	counts := map[string]int{}
	out := make([]Doc, 0, len(docs))
	for _, d := range docs {
		if counts[d.Domain] < maxPerDomain {
			counts[d.Domain]++
			out = append(out, d)
		}
	}
	return out
}

// MedianAgeDays returns the median document age in days among documents
// with a confident publish date, or NaN if none qualify.
func MedianAgeDays(docs []Doc, minConfidence float64) float64 {
	now := time.Now().UTC()
	var ages []float64
	for _, d := range docs {
		if d.PublishedAt != nil && d.PublishedConfidence >= minConfidence {
			age := now.Sub(*d.PublishedAt).Hours() / 24
			if age < 0 {
				age = 0
			}
			ages = append(ages, age)
		}
	}
	if len(ages) == 0 {
		return math.NaN()
	}
	sort.Float64s(ages)
	mid := len(ages) / 2
	if len(ages)%2 == 1 {
		return ages[mid]
	}
	return (ages[mid-1] + ages[mid]) / 2
}

// EvidenceMetrics summarizes a document set's coverage, matching
// heretix_wel/snippets.py's evidence_metrics.
func EvidenceMetrics(docs []Doc) map[string]float64 {
	domains := map[string]bool{}
	for _, d := range docs {
		if d.Domain != "" {
			domains[d.Domain] = true
		}
	}
	return map[string]float64{
		"n_docs":          float64(len(docs)),
		"n_domains":       float64(len(domains)),
		"median_age_days": MedianAgeDays(docs, 0),
	}
}

// PackSnippetsForLLM renders a document set into the plain-text bundle
// handed to the WEL stance-scoring prompt, truncated to maxChars.
func PackSnippetsForLLM(claim string, docs []Doc, maxChars int) string {
	var b strings.Builder
	b.WriteString("CLAIM: " + claim + "\n\nSNIPPETS (use ONLY these):\n")
	for _, d := range docs {
		dateStr := "unknown-date"
		if d.PublishedAt != nil {
			dateStr = d.PublishedAt.Format("2006-01-02")
		}
		title := strings.TrimSpace(d.Title)
		if len(title) > 300 {
			title = title[:300]
		}
		b.WriteString("- [" + d.Domain + "] " + title + " (" + dateStr + ")\n")
		b.WriteString("  " + d.Snippet + "\n")
	}
	text := b.String()
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
