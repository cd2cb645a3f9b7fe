package wel

import (
	"context"
	"fmt"
	"time"

	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/retrieval"
	"github.com/proofline/proofline/pkg/schema"
)

// ToSchemaDoc converts a retrieval.Doc (the document shape the search/
// enrichment layer works in) to schema.Doc (the canonical response/
// resolver shape), carrying the publish-date provenance fields across
// under pkg/schema's field names.
func ToSchemaDoc(d retrieval.Doc) schema.Doc {
	return schema.Doc{
		URL:                 d.URL,
		Domain:              d.Domain,
		Title:               d.Title,
		Snippet:             d.Snippet,
		PageText:            d.PageText,
		PublishedAt:         d.PublishedAt,
		PublishedMethod:     d.PublishedSource,
		PublishedConfidence: d.PublishedConfidence,
	}
}

// Options configures Run.
type Options struct {
	Model        string
	NReplicates  int
	MaxBundleChars int
	MaxPerDomain int
}

// DefaultOptions mirrors the defaults original_source/heretix_wel's
// pipeline wiring uses: 2 replicates, a 6000-char snippet bundle, at most
// 3 documents per domain.
func DefaultOptions(model string) Options {
	return Options{Model: model, NReplicates: 2, MaxBundleChars: 6000, MaxPerDomain: 3}
}

// Run scores a retrieved document set against a claim: it packs the docs
// into a snippet bundle, asks the WEL judge for NReplicates independent
// stance estimates, and combines them into a schema.WebBlock. It also
// attempts deterministic resolution (see TryResolveFact) when the claim's
// relation family makes that safe, and folds a successful resolution's
// pinned probability into the returned block per DESIGN.md's Open
// Question resolution.
func Run(ctx context.Context, scorer provider.Scorer, claim string, docs []schema.Doc, opts Options) (schema.WebBlock, []schema.WELReplicate, error) {
	if opts.NReplicates <= 0 {
		opts.NReplicates = 2
	}

	retrievalDocs := make([]retrieval.Doc, len(docs))
	for i, d := range docs {
		retrievalDocs[i] = retrieval.Doc{
			URL: d.URL, Domain: d.Domain, Title: d.Title, Snippet: d.Snippet,
			PageText: d.PageText, PublishedAt: d.PublishedAt,
			PublishedConfidence: d.PublishedConfidence, PublishedSource: d.PublishedMethod,
		}
	}
	capped := retrieval.CapPerDomain(retrieval.DedupeByURL(retrievalDocs), maxOrDefault(opts.MaxPerDomain, 3))
	bundle := retrieval.PackSnippetsForLLM(claim, capped, maxOrDefault(opts.MaxBundleChars, 6000))

	replicates := make([]schema.WELReplicate, 0, opts.NReplicates)
	validProbs := make([]float64, 0, opts.NReplicates)
	validCount := 0

	for i := 0; i < opts.NReplicates; i++ {
		rep := schema.WELReplicate{ReplicateIdx: i, Docs: docs}
		doc, _, _, err := CallWELOnce(ctx, scorer, claim, bundle, opts.Model)
		if err != nil {
			rep.JSONValid = false
			replicates = append(replicates, rep)
			continue
		}
		rep.PWeb = doc.StanceProbTrue
		rep.SupportBullets = doc.SupportBullets
		rep.OpposeBullets = doc.OpposeBullets
		rep.Notes = doc.Notes
		rep.JSONValid = true
		replicates = append(replicates, rep)
		validProbs = append(validProbs, doc.StanceProbTrue)
		validCount++
	}

	if len(validProbs) == 0 {
		return schema.WebBlock{}, replicates, fmt.Errorf("wel: all %d replicates failed to produce a valid stance", opts.NReplicates)
	}

	combined, err := CombineReplicateProbs(validProbs)
	if err != nil {
		return schema.WebBlock{}, replicates, err
	}

	evidence := retrieval.EvidenceMetrics(capped)
	evidence["json_valid_rate"] = float64(validCount) / float64(opts.NReplicates)
	evidence["dispersion"] = combined.Dispersion

	block := schema.WebBlock{
		P:             combined.P,
		CI95:          combined.CI95,
		EvidenceStats: evidence,
	}

	info := ParseClaim(claim, time.Time{})
	resolved, err := TryResolveFact(ctx, claim, docs, info, EvaluateDocViaProvider(scorer, opts.Model))
	if err != nil {
		return block, replicates, err
	}
	if resolved.Resolved {
		truth := resolved.Truth
		block.Resolved = true
		block.ResolvedTruth = &truth
		block.ResolvedReason = resolved.Reason
		block.ResolvedCitations = resolved.Citations
		block.Support = resolved.Support
		block.Contradict = resolved.Contradict
		block.Domains = resolved.Domains
		if truth {
			block.P, block.CI95 = ResolvedTruePin()
		} else {
			block.P, block.CI95 = ResolvedFalsePin()
		}
	}

	return block, replicates, nil
}

func maxOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ResolvedTruePin and ResolvedFalsePin are the fixed probability/CI pairs
// a deterministic resolution is pinned to, per DESIGN.md's Open Question
// resolution: a confident consensus resolution should dominate the
// web-estimate logit-space blend without collapsing to a degenerate 0/1
// that a downstream fuse_probabilities variance computation can't handle.
func ResolvedTruePin() (float64, [2]float64)  { return 0.95, [2]float64{0.93, 0.97} }
func ResolvedFalsePin() (float64, [2]float64) { return 0.05, [2]float64{0.03, 0.07} }
