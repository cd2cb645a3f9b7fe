package retrieval

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichPublishDatePrefersJSONLD(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{"@type":"NewsArticle","datePublished":"2026-01-15T10:00:00Z"}</script>
<meta property="article:published_time" content="2025-01-01">
</head></html>`
	date, conf, source := EnrichPublishDate(html, "https://example.com/a", http.Header{})
	require.NotNil(t, date)
	assert.Equal(t, "json_ld", source)
	assert.Equal(t, 2026, date.Year())
	assert.Greater(t, conf, 0.9)
}

func TestEnrichPublishDateFallsBackToOGMeta(t *testing.T) {
	html := `<html><head><meta property="article:published_time" content="2025-06-01"></head></html>`
	date, _, source := EnrichPublishDate(html, "https://example.com/a", http.Header{})
	require.NotNil(t, date)
	assert.Equal(t, "og_meta", source)
}

func TestEnrichPublishDateFallsBackToTimeTag(t *testing.T) {
	html := `<html><body><time datetime="2024-03-04">March 4</time></body></html>`
	date, _, source := EnrichPublishDate(html, "https://example.com/a", http.Header{})
	require.NotNil(t, date)
	assert.Equal(t, "time_tag", source)
}

func TestEnrichPublishDateFallsBackToURLPath(t *testing.T) {
	html := `<html><body>no structured date here</body></html>`
	date, _, source := EnrichPublishDate(html, "https://example.com/2023/11/05/some-article", http.Header{})
	require.NotNil(t, date)
	assert.Equal(t, "url_path", source)
	assert.Equal(t, 2023, date.Year())
}

func TestEnrichPublishDateFallsBackToBodyHeuristic(t *testing.T) {
	html := `<html><body>Published: January 5, 2022 by staff</body></html>`
	date, _, source := EnrichPublishDate(html, "https://example.com/article", http.Header{})
	require.NotNil(t, date)
	assert.Equal(t, "body_heuristic", source)
	assert.Equal(t, 2022, date.Year())
}

func TestEnrichPublishDateFallsBackToLastModifiedHeader(t *testing.T) {
	headers := http.Header{}
	headers.Set("Last-Modified", "Tue, 15 Nov 2022 12:45:26 GMT")
	date, _, source := EnrichPublishDate("<html><body>nothing</body></html>", "https://example.com/page", headers)
	require.NotNil(t, date)
	assert.Equal(t, "last_modified_header", source)
}

func TestEnrichPublishDateReturnsNilWhenNothingFound(t *testing.T) {
	date, conf, source := EnrichPublishDate("<html><body>nothing useful</body></html>", "https://example.com/page", http.Header{})
	assert.Nil(t, date)
	assert.Equal(t, 0.0, conf)
	assert.Equal(t, "none", source)
}
