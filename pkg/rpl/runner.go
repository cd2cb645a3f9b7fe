// Package rpl orchestrates one Raw Prior Lens run: plan the
// balanced template/replicate schedule, score every slot through a
// provider adapter (cached), aggregate the resulting logits, and compute
// the stability/PQS/gate summary. Ported from
// original_source/heretix/rpl.py's run_single_version.
package rpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/proofline/proofline/pkg/aggregate"
	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/jsonrepair"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/samplecache"
	"github.com/proofline/proofline/pkg/schema"
	"github.com/proofline/proofline/pkg/seed"
	"github.com/proofline/proofline/pkg/sampler"
	"github.com/proofline/proofline/pkg/stability"
)

// Runner wires together the shared dependencies every RPL run needs.
type Runner struct {
	Providers   *provider.Registry
	Cache       *samplecache.Cache
	RateLimiter *ratelimit.Registry
}

// NewRunner builds a Runner from process-scoped collaborators as given; it
// fills in no defaults, and a nil cache or limiter skips caching or rate
// limiting.
func NewRunner(providers *provider.Registry, cache *samplecache.Cache, limiter *ratelimit.Registry) *Runner {
	return &Runner{Providers: providers, Cache: cache, RateLimiter: limiter}
}

// schemaInstructions is appended to system_text when the runner computes
// its prompt hashes and checks max_prompt_chars. The request sent to the
// adapter carries bundle.System alone, so this text is not sent to the
// model.
const schemaInstructions = `Return ONLY JSON matching this schema: ` +
	`{ "prob_true": 0..1, "confidence_self": 0..1, ` +
	`"assumptions": [string], "reasoning_bullets": [3-6 strings], ` +
	`"contrary_considerations": [2-4 strings], "ambiguity_flags": [string] } ` +
	`Output the JSON object only.`

// sampleRow is one replicate's outcome, mirroring the dict rpl.py builds
// per-slot before persistence.
type sampleRow struct {
	CacheKey        string
	PromptSHA256    string
	ParaphraseIdx   int
	ReplicateIdx    int
	ProbTrue        float64
	HasProb         bool
	Logit           float64
	ProviderModelID string
	ResponseID      string
	CreatedAt       int64
	LatencyMS       int64
	JSONValid       bool
	TokensIn        int
	TokensOut       int
}

// Result is the full output of one RunSingleVersion call.
type Result struct {
	RunID      string
	Aggregate  schema.AggregationResult
	Attempted  int
	CacheHits  int
	ValidCount int
	PQS        int
	GateCompliance bool
	GateStability  bool
	GatePrecision  bool
	TotalTokensIn  int
	TotalTokensOut int
}

func logit(p float64) float64 {
	p = math.Max(1e-6, math.Min(1-1e-6, p))
	return math.Log(p / (1 - p))
}

func sigmoidClamped(x float64) float64 {
	x = math.Max(-709, math.Min(709, x))
	return 1 / (1 + math.Exp(-x))
}

func hasCitationOrURL(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "http://") || strings.Contains(t, "https://") || strings.Contains(t, "www.")
}

// RunSingleVersion runs the full RPL sampling + aggregation pipeline for
// one (claim, model, prompt_version) triple.
func (rn *Runner) RunSingleVersion(ctx context.Context, cfg config.RunConfig, bundle config.PromptBundle, providerMode string) (Result, error) {
	if len(bundle.Paraphrases) == 0 {
		return Result{}, fmt.Errorf("rpl: prompt bundle has no paraphrases")
	}

	tBank := len(bundle.Paraphrases)
	tStage := tBank
	if cfg.T != nil {
		tStage = *cfg.T
	}
	if tStage < 1 {
		tStage = 1
	}
	if tStage > tBank {
		tStage = tBank
	}

	tplIndices := sampler.ActiveTemplateIndices(cfg.Claim, cfg.Model, bundle.Version, tBank, tStage)
	seq := sampler.BalancedIndicesWithRotation(tStage, cfg.K, 0)

	fullInstructions := bundle.System + "\n\n" + schemaInstructions

	promptCharMax := 0
	for _, pidx := range tplIndices {
		userText := composeUserText(bundle, pidx, cfg.Claim)
		plen := len(fullInstructions + "\n\n" + userText)
		if plen > promptCharMax {
			promptCharMax = plen
		}
	}
	if cfg.MaxPromptChars != nil && promptCharMax > *cfg.MaxPromptChars {
		return Result{}, fmt.Errorf("rpl: prompt length %d exceeds max_prompt_chars=%d", promptCharMax, *cfg.MaxPromptChars)
	}

	byTpl := map[string][]float64{}
	tplHashes := []string{}
	occByHash := map[string]int{}
	attempted, cacheHits, validCount := 0, 0, 0
	totalTokensIn, totalTokensOut := 0, 0

	for _, localTplIdx := range seq {
		pidx := tplIndices[localTplIdx]
		userText := composeUserText(bundle, pidx, cfg.Claim)
		promptHash := sha256.Sum256([]byte(fullInstructions + "\n\n" + userText))
		promptSHA := hex.EncodeToString(promptHash[:])

		occIdx := occByHash[promptSHA]
		occByHash[promptSHA] = occIdx + 1

		for r := 0; r < cfg.R; r++ {
			attempted++
			replicateIdxGlobal := occIdx*cfg.R + r

			row, hit, err := rn.scoreOne(ctx, cfg, bundle, pidx, replicateIdxGlobal, promptSHA, providerMode)
			if err != nil {
				return Result{}, err
			}
			if hit {
				cacheHits++
			}
			totalTokensIn += row.TokensIn
			totalTokensOut += row.TokensOut

			if row.JSONValid {
				validCount++
				byTpl[row.PromptSHA256] = append(byTpl[row.PromptSHA256], row.Logit)
				tplHashes = append(tplHashes, row.PromptSHA256)
			}
		}
	}

	if validCount < 3 {
		return Result{}, fmt.Errorf("rpl: too few valid samples: %d < 3", validCount)
	}

	seedVal := rn.resolveSeed(cfg, bundle, tplHashes)
	aggRes, err := aggregate.AggregateClustered(byTpl, aggregate.Options{
		B: cfg.B, Center: aggregate.CenterTrimmed, Trim: 0.2, Seed: seedVal,
	})
	if err != nil {
		return Result{}, err
	}

	pHat := sigmoidClamped(aggRes.CenterLogit)
	loP := sigmoidClamped(aggRes.CILoLogit)
	hiP := sigmoidClamped(aggRes.CIHiLogit)

	tplMeans := make([]float64, 0, len(byTpl))
	for _, logits := range byTpl {
		tplMeans = append(tplMeans, mean(logits))
	}
	stabilityScore, iqrLogit := stability.ComputeCalibrated(tplMeans)
	band := stability.BandFromIQR(iqrLogit, stability.DefaultHighMax, stability.DefaultMediumMax)

	cacheHitRate := 0.0
	complianceRate := 0.0
	if attempted > 0 {
		cacheHitRate = float64(cacheHits) / float64(attempted)
		complianceRate = float64(validCount) / float64(attempted)
	}

	width := hiP - loP
	pqs := int(100 * (0.4*stabilityScore + 0.4*(1-math.Min(width, 0.5)/0.5) + 0.2*complianceRate))

	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|K=%d|R=%d", cfg.Claim, cfg.Model, bundle.Version, cfg.K, cfg.R)))
	runID := "proofline-rpl-" + hex.EncodeToString(digest[:])[:12]

	return Result{
		RunID: runID,
		Aggregate: schema.AggregationResult{
			ProbTrue:          pHat,
			CI95:              [2]float64{loP, hiP},
			CIWidth:           width,
			TemplateIQRLogit:  iqrLogit,
			StabilityScore:    stabilityScore,
			StabilityBand:     string(band),
			ImbalanceRatio:    aggRes.ImbalanceRatio,
			CountsByTemplate:  aggRes.CountsByTemplate,
			NTemplates:        aggRes.NTemplates,
			RPLComplianceRate: complianceRate,
			CacheHitRate:      cacheHitRate,
			Method:            aggRes.Method,
			BootstrapSeed:     seedVal,
		},
		Attempted:      attempted,
		CacheHits:      cacheHits,
		ValidCount:     validCount,
		PQS:            pqs,
		GateCompliance: complianceRate >= 0.98,
		GateStability:  stabilityScore >= 0.25,
		GatePrecision:  width <= 0.30,
		TotalTokensIn:  totalTokensIn,
		TotalTokensOut: totalTokensOut,
	}, nil
}

func (rn *Runner) resolveSeed(cfg config.RunConfig, bundle config.PromptBundle, tplHashes []string) uint64 {
	if cfg.Seed != nil {
		return uint64(*cfg.Seed)
	}
	unique := map[string]struct{}{}
	for _, h := range tplHashes {
		unique[h] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for h := range unique {
		sorted = append(sorted, h)
	}
	sort.Strings(sorted)
	return seed.Derive(map[string]string{
		"claim":          cfg.Claim,
		"model":          cfg.Model,
		"prompt_version": bundle.Version,
		"k":              fmt.Sprintf("%d", cfg.K),
		"r":              fmt.Sprintf("%d", cfg.R),
		"b":              fmt.Sprintf("%d", cfg.B),
		"templates":      strings.Join(sorted, ","),
	})
}

func composeUserText(bundle config.PromptBundle, pidx int, claim string) string {
	paraphrase := strings.ReplaceAll(bundle.Paraphrases[pidx], "{CLAIM}", claim)
	template := strings.ReplaceAll(bundle.UserTemplate, "{CLAIM}", claim)
	return paraphrase + "\n\n" + template
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func (rn *Runner) scoreOne(ctx context.Context, cfg config.RunConfig, bundle config.PromptBundle, pidx, replicateIdx int, promptSHA, providerMode string) (sampleRow, bool, error) {
	ckey := samplecache.MakeSampleCacheKey(samplecache.SampleKeyInput{
		Claim: cfg.Claim, Model: cfg.Model, PromptVersion: bundle.Version,
		PromptSHA256: promptSHA, ReplicateIdx: replicateIdx,
		MaxOutputTokens: cfg.MaxOutputTokens, ProviderMode: providerMode,
	})

	if !cfg.NoCache && rn.Cache != nil {
		var cached sampleRow
		hit, err := rn.Cache.Get(ctx, ckey, &cached)
		if err == nil && hit {
			return cached, true, nil
		}
	}

	if rn.RateLimiter != nil {
		if err := rn.RateLimiter.Acquire(ctx, providerMode, cfg.Model, 30*time.Second); err != nil {
			return sampleRow{}, false, fmt.Errorf("rpl: rate limit acquire failed: %w", err)
		}
	}

	alias := cfg.Model
	if providerMode == "MOCK" {
		alias = provider.MockAlias
	}
	scorer, err := rn.Providers.Get(alias)
	if err != nil {
		return sampleRow{}, false, err
	}

	paraphrase := bundle.Paraphrases[pidx]
	out, err := scorer(ctx, provider.Request{
		Claim:           cfg.Claim,
		SystemText:      bundle.System,
		UserTemplate:    bundle.UserTemplate,
		ParaphraseText:  paraphrase,
		Model:           cfg.Model,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	if err != nil {
		return sampleRow{}, false, fmt.Errorf("rpl: scoring failed: %w", err)
	}

	obj, _, parseErr := jsonrepair.ExtractAndValidate(out.RawText, schema.KindRPLSample)
	row := sampleRow{
		CacheKey:        ckey,
		PromptSHA256:    promptSHA,
		ParaphraseIdx:   pidx,
		ReplicateIdx:    replicateIdx,
		ProviderModelID: out.Meta.ProviderModelID,
		ResponseID:      out.Meta.ResponseID,
		CreatedAt:       time.Now().Unix(),
		LatencyMS:       out.Timing.LatencyMS,
		TokensIn:        out.Telemetry.InputTokens,
		TokensOut:       out.Telemetry.OutputTokens,
	}

	if parseErr == nil {
		belief, ok := obj["belief"].(map[string]any)
		if ok {
			if p, ok := belief["prob_true"].(float64); ok {
				row.ProbTrue = p
				row.HasProb = true
				row.Logit = logit(p)
			}
		}
		compliant := row.HasProb && !hasCitationOrURL(fmt.Sprintf("%v", obj))
		row.JSONValid = compliant
	}

	if rn.Cache != nil {
		_ = rn.Cache.Set(ctx, ckey, row)
	}
	return row, false, nil
}
