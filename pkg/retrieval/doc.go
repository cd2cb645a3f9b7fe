// Package retrieval implements the Web-Evidence Lens's document intake:
// dedup/per-domain capping, recency metrics, and the publish-date
// enrichment chain. Ported from original_source/heretix_wel/{types,
// snippets}.py; the date-extraction chain is original to SPEC_FULL.md §4.11
// and built on stdlib net/http/regexp since no HTML-parsing library
// appears in the example pack's non-test code (documented in DESIGN.md).
package retrieval

import (
	"context"
	"time"
)

// Doc is one retrieved document snippet, mirroring heretix_wel/types.py's
// Doc dataclass.
type Doc struct {
	URL                 string
	Title               string
	Snippet             string
	PageText            string
	Domain              string
	PublishedAt         *time.Time
	PublishedConfidence float64
	PublishedSource     string // which enrichment method produced PublishedAt
}

// Retriever is the contract a search backend must satisfy to feed the WEL
// pipeline, mirroring heretix_wel/retriever.py's abstract interface.
type Retriever interface {
	Search(ctx context.Context, claim string, maxResults int) ([]Doc, error)
}
