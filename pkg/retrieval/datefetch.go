package retrieval

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// dateLayouts is the set of timestamp formats the enrichment chain
// attempts, roughly in order of how often real-world pages use them.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

func parseAnyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	jsonLDRe   = regexp.MustCompile(`(?is)<script[^>]+type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	ogDateRe   = regexp.MustCompile(`(?is)<meta[^>]+property=["']article:published_time["'][^>]+content=["']([^"']+)["']`)
	timeTagRe  = regexp.MustCompile(`(?is)<time[^>]+datetime=["']([^"']+)["']`)
	urlDateRe  = regexp.MustCompile(`/(20\d{2})[/-](\d{1,2})[/-](\d{1,2})(?:[/-]|$)`)
	bodyDateRe = regexp.MustCompile(`(?i)(Published|Posted|Updated)\s*:?\s*([A-Za-z]+ \d{1,2},? \d{4}|\d{4}-\d{2}-\d{2})`)
)

// EnrichPublishDate runs the publish-date enrichment chain against an
// HTML page body and response headers, in priority order: JSON-LD
// structured data, Open Graph article:published_time, an HTML5 <time>
// element, the URL's own /YYYY/MM/DD/ path segment, a body-text
// "Published: <date>" heuristic, and finally the HTTP Last-Modified
// header. The first method to produce a parseable date wins; its name is
// recorded as PublishedSource for provenance.
func EnrichPublishDate(html, url string, headers http.Header) (*time.Time, float64, string) {
	if m := jsonLDRe.FindStringSubmatch(html); m != nil {
		if t, ok := extractJSONLDDate(m[1]); ok {
			return &t, 0.95, "json_ld"
		}
	}
	if m := ogDateRe.FindStringSubmatch(html); m != nil {
		if t, ok := parseAnyDate(m[1]); ok {
			return &t, 0.9, "og_meta"
		}
	}
	if m := timeTagRe.FindStringSubmatch(html); m != nil {
		if t, ok := parseAnyDate(m[1]); ok {
			return &t, 0.8, "time_tag"
		}
	}
	if m := urlDateRe.FindStringSubmatch(url); m != nil {
		if t, ok := parseAnyDate(m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])); ok {
			return &t, 0.6, "url_path"
		}
	}
	if m := bodyDateRe.FindStringSubmatch(html); m != nil {
		if t, ok := parseAnyDate(m[2]); ok {
			return &t, 0.5, "body_heuristic"
		}
	}
	if lm := headers.Get("Last-Modified"); lm != "" {
		if t, err := time.Parse(http.TimeFormat, lm); err == nil {
			return &t, 0.3, "last_modified_header"
		}
	}
	return nil, 0, "none"
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// jsonLDDateFields is every field name observed carrying a publish
// timestamp across schema.org NewsArticle/Article/BlogPosting payloads.
var jsonLDDateFields = []string{"datePublished", "dateCreated", "uploadDate"}

func extractJSONLDDate(block string) (time.Time, bool) {
	var generic any
	if err := json.Unmarshal([]byte(block), &generic); err != nil {
		return time.Time{}, false
	}
	return findJSONLDDate(generic)
}

func findJSONLDDate(node any) (time.Time, bool) {
	switch v := node.(type) {
	case map[string]any:
		for _, field := range jsonLDDateFields {
			if raw, ok := v[field]; ok {
				if s, ok := raw.(string); ok {
					if t, ok := parseAnyDate(s); ok {
						return t, true
					}
				}
			}
		}
		for _, nested := range v {
			if t, ok := findJSONLDDate(nested); ok {
				return t, true
			}
		}
	case []any:
		for _, nested := range v {
			if t, ok := findJSONLDDate(nested); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
