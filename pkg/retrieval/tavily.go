package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TavilyRetriever is the live search backend, ported from
// original_source/heretix_wel/providers/tavily.py's TavilyRetriever. No
// Go SDK for Tavily appears anywhere in the example pack, so this talks
// to Tavily's documented REST search endpoint directly over stdlib
// net/http rather than reaching for a third-party client (documented in
// DESIGN.md).
type TavilyRetriever struct {
	APIKey     string
	HTTPClient *http.Client
	BaseURL    string
}

// NewTavilyRetriever builds a retriever against the given API key, with a
// client timeout suited to the 60s scoring-call budget the rest of the
// pipeline uses (§5 "Cancellation and timeouts").
func NewTavilyRetriever(apiKey string) *TavilyRetriever {
	return &TavilyRetriever{
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    "https://api.tavily.com/search",
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Days       int    `json:"days,omitempty"`
}

type tavilyResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search implements Retriever against Tavily's search API with no recency
// filter; SearchWithRecency takes one (in days).
func (t *TavilyRetriever) Search(ctx context.Context, query string, k int) ([]Doc, error) {
	return t.SearchWithRecency(ctx, query, k, 0)
}

// SearchWithRecency is Search with an optional recency_days cap, mirroring
// the spec §4.11 retriever contract's optional parameter.
func (t *TavilyRetriever) SearchWithRecency(ctx context.Context, query string, k, recencyDays int) ([]Doc, error) {
	if t.APIKey == "" {
		return nil, fmt.Errorf("retrieval: tavily retriever requires an API key")
	}
	if k <= 0 {
		k = 10
	}

	body, err := json.Marshal(tavilyRequest{APIKey: t.APIKey, Query: query, MaxResults: k, Days: recencyDays})
	if err != nil {
		return nil, fmt.Errorf("retrieval: marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("retrieval: build tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("retrieval: read tavily response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval: tavily returned status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("retrieval: decode tavily response: %w", err)
	}

	docs := make([]Doc, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		docs = append(docs, Doc{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: NormalizeSnippetText(r.Content),
			Domain:  registrableDomain(r.URL),
		})
	}
	return docs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// registrableDomain lower-cases a URL's host and strips a leading "www."
// (e.g. "www.nytimes.com" -> "nytimes.com"); other subdomains are kept, so
// "news.bbc.co.uk" is returned unchanged. The result is used for
// per-domain capping and the resolver's domain weight lookup.
func registrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
