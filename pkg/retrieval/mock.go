package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// MockRetriever returns a fixed, deterministic document set derived from
// the claim text, used in place of a live search backend wherever none is
// configured (§4.11's retriever contract, satisfied without any network
// access). The pipeline's mock mode does not call a retriever at all.
type MockRetriever struct {
	// Docs, when non-nil, is returned verbatim (capped to maxResults);
	// nil returns one placeholder document derived from the claim, whose
	// snippet carries no stance signal.
	Docs []Doc
}

// Search implements Retriever.
func (m MockRetriever) Search(_ context.Context, claim string, maxResults int) ([]Doc, error) {
	docs := m.Docs
	if docs == nil {
		docs = []Doc{{
			URL:     "https://mock.example/" + shortHash(claim),
			Title:   "Mock evidence for: " + claim,
			Snippet: "No live retrieval was performed; this is a placeholder snippet carrying no stance signal.",
			Domain:  "mock.example",
		}}
	}
	if maxResults > 0 && len(docs) > maxResults {
		docs = docs[:maxResults]
	}
	return docs, nil
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:10]
}
