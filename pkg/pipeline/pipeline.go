// Package pipeline composes the Raw Prior Lens runner, the optional
// Web-Evidence Lens, and their fusion into one run: it drives C10 (always)
// and C11-C14 (when the run is web_informed), persists one RunRecord
// through the durable store, writes web artifacts, and returns the
// canonical versioned response (§4.15). Ported from
// original_source/heretix/pipeline.py's perform_run.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/fusion"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/retrieval"
	"github.com/proofline/proofline/pkg/rpl"
	"github.com/proofline/proofline/pkg/samplecache"
	"github.com/proofline/proofline/pkg/schema"
	"github.com/proofline/proofline/pkg/store"
	"github.com/proofline/proofline/pkg/telemetry"
	"github.com/proofline/proofline/pkg/wel"
)

// narrativeCacheHitThreshold is perform_run's constant: above this
// cache-hit rate a run is considered a pure cache replay, and narrative
// generation (which costs a live model call) is skipped in favor of the
// deterministic fallback.
const narrativeCacheHitThreshold = 0.999

// AuditRecorder is the durable-audit-row collaborator a Pipeline writes
// through after every successful run. Satisfied by *store.AuditStore in
// production and by fakes/nil in tests (a nil AuditRecorder is a no-op,
// matching a deployment that hasn't configured Postgres).
type AuditRecorder interface {
	InsertRunRecord(ctx context.Context, rec schema.RunRecord) error
}

// Pipeline holds the process-scoped collaborators a run needs, matching
// §9's "construct these in an explicit initialization step that returns a
// context object" strategy: every dependency is passed in once at
// construction, never re-resolved per run.
type Pipeline struct {
	Providers     *provider.Registry
	SampleCache   *samplecache.Cache
	RunCache      *samplecache.Cache
	RateLimiter   *ratelimit.Registry
	Retriever     retrieval.Retriever
	ArtifactStore store.ArtifactStore
	Audit         AuditRecorder
	Logger        zerolog.Logger
	RunDeadline   time.Duration
	Telemetry     *telemetry.Recorder
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithRetriever sets the live web search backend used for web_informed
// runs that are not in mock mode.
func WithRetriever(r retrieval.Retriever) Option { return func(p *Pipeline) { p.Retriever = r } }

// WithRunCache sets the full-run cache (§4.16).
func WithRunCache(c *samplecache.Cache) Option { return func(p *Pipeline) { p.RunCache = c } }

// WithArtifactStore sets the artifact blob backend (§4.16).
func WithArtifactStore(s store.ArtifactStore) Option {
	return func(p *Pipeline) { p.ArtifactStore = s }
}

// WithAudit sets the durable RunRecord sink (§3 RunRecord).
func WithAudit(a AuditRecorder) Option { return func(p *Pipeline) { p.Audit = a } }

// WithLogger overrides the default zerolog logger.
func WithLogger(l zerolog.Logger) Option { return func(p *Pipeline) { p.Logger = l } }

// WithRunDeadline overrides the default 600s run-level deadline (§5).
func WithRunDeadline(d time.Duration) Option { return func(p *Pipeline) { p.RunDeadline = d } }

// WithTelemetry attaches the Prometheus collectors a run reports through.
func WithTelemetry(r *telemetry.Recorder) Option { return func(p *Pipeline) { p.Telemetry = r } }

// New builds a Pipeline from its required collaborators plus any Options.
func New(providers *provider.Registry, sampleCache *samplecache.Cache, limiter *ratelimit.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		Providers:     providers,
		SampleCache:   sampleCache,
		RateLimiter:   limiter,
		ArtifactStore: store.ArtifactStore(nil),
		Logger:        log.Logger,
		RunDeadline:   600 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one end-to-end estimation for cfg+bundle, returning the
// canonical RunResponse (§6). usage, when non-nil, is folded into the
// response verbatim — quota/billing decisions are made by the caller
// (§6 "external collaborators"), not by Run itself.
func (p *Pipeline) Run(ctx context.Context, cfg config.RunConfig, bundle config.PromptBundle, usage *schema.UsagePlan) (resp schema.RunResponse, err error) {
	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeBaseline
	}

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.Telemetry.ObserveRun(telemetry.RunObservation{
			Mode: mode, Status: status, Duration: time.Since(start),
			TokensIn: resp.Provenance.TotalTokensIn, TokensOut: resp.Provenance.TotalTokensOut,
			CacheHitRate: resp.Aggregates.CacheHitRate, ComplianceRate: resp.Aggregates.RPLComplianceRate,
			StabilityScore: resp.Aggregates.StabilityScore, PQS: resp.Provenance.PQS,
		})
	}()

	if cfg.Claim == "" {
		return schema.RunResponse{}, schema.New(schema.ErrorTypeValidation, "claim must not be empty")
	}
	if mode != config.ModeBaseline && mode != config.ModeWebInformed {
		return schema.RunResponse{}, schema.Newf(schema.ErrorTypeValidation, "unknown mode %q", mode)
	}

	deadline := p.RunDeadline
	if deadline <= 0 {
		deadline = 600 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	providerMode := "LIVE"
	if cfg.Mock {
		providerMode = "MOCK"
	}

	runCacheKey := samplecache.MakeRunCacheKey(samplecache.RunKeyInput{
		Claim: cfg.Claim, Model: cfg.Model, Provider: cfg.Provider, PromptVersion: bundle.Version,
		K: cfg.K, R: cfg.R, T: tOrZero(cfg.T), MaxOutputTokens: cfg.MaxOutputTokens,
		ProviderMode: providerMode, TargetB: cfg.B, SeedMarker: seedMarker(cfg),
	})

	if !cfg.NoCache && p.RunCache != nil {
		var cached schema.RunResponse
		hit, err := p.RunCache.Get(runCtx, mode+"|"+runCacheKey, &cached)
		if err == nil && hit {
			cached.ExecutionID = newExecutionID()
			return cached, nil
		}
	}

	rplRunner := rpl.NewRunner(p.Providers, p.SampleCache, p.RateLimiter)
	result, err := rplRunner.RunSingleVersion(runCtx, cfg, bundle, providerMode)
	if err != nil {
		return schema.RunResponse{}, classifyRPLError(err)
	}

	prior := schema.PriorBlock{
		P:              result.Aggregate.ProbTrue,
		CI95:           result.Aggregate.CI95,
		Stability:      result.Aggregate.StabilityScore,
		ComplianceRate: result.Aggregate.RPLComplianceRate,
	}

	var web *schema.WebBlock
	var replicates []schema.WELReplicate
	var webArtifactURI string

	if mode == config.ModeWebInformed {
		web, replicates, err = p.runWEL(runCtx, cfg, prior, providerMode)
		if err != nil {
			return schema.RunResponse{}, schema.Wrap(err, schema.ErrorTypeInternal, "web-evidence lens failed")
		}
	}

	fusionIn := fusionInputs(prior, web, cfg.Claim)
	if providerMode == "MOCK" {
		// The mock web block only mirrors the prior and carries no
		// evidence, so it is combined with zero web weight.
		fusionIn.Web = nil
	}
	combined := fusion.Combine(fusionIn)

	var weights *schema.Weights
	if web != nil {
		weights = &schema.Weights{Prior: combined.WeightPrior, Web: combined.WeightWeb}
	}

	simpleExpl := p.buildSimpleExpl(runCtx, cfg, combined, result.Aggregate.CacheHitRate)

	if mode == config.ModeWebInformed && p.ArtifactStore != nil {
		rec, aErr := store.WriteRunArtifact(p.ArtifactStore, result.RunID, cfg.Claim, mode, prior, web, combined, replicates)
		if aErr == nil {
			webArtifactURI = rec.ManifestURI
		} else {
			p.Logger.Warn().Err(aErr).Str("run_id", result.RunID).Msg("failed to write web artifact")
		}
	}

	execID := newExecutionID()
	resp := schema.RunResponse{
		ExecutionID:          execID,
		RunID:                result.RunID,
		Claim:                cfg.Claim,
		Model:                cfg.Model,
		LogicalModel:         cfg.Model,
		Provider:             cfg.Provider,
		ResolvedLogicalModel: cfg.Model,
		PromptVersion:        bundle.Version,
		SchemaVersion:        schema.SchemaVersion,
		Sampling:             schema.SamplingInfo{K: cfg.K, R: cfg.R, T: tplCount(cfg, bundle)},
		Aggregation: schema.AggregationInfo{
			Method: result.Aggregate.Method, B: cfg.B, Center: "trimmed", Trim: 0.2,
			BootstrapSeed: result.Aggregate.BootstrapSeed, NTemplates: result.Aggregate.NTemplates,
			CountsByTemplate: result.Aggregate.CountsByTemplate, ImbalanceRatio: result.Aggregate.ImbalanceRatio,
			TemplateIQRLogit: result.Aggregate.TemplateIQRLogit,
		},
		Aggregates: schema.AggregatesInfo{
			ProbTrueRPL: result.Aggregate.ProbTrue, CI95: result.Aggregate.CI95, CIWidth: result.Aggregate.CIWidth,
			StabilityScore: result.Aggregate.StabilityScore, StabilityBand: result.Aggregate.StabilityBand,
			IsStable: result.Aggregate.CIWidth <= 0.20, RPLComplianceRate: result.Aggregate.RPLComplianceRate,
			CacheHitRate: result.Aggregate.CacheHitRate,
		},
		Mock:      cfg.Mock,
		UsagePlan: usage,
		Mode:      mode,
		Prior:     prior,
		Web:       web,
		Combined:  combined,
		Weights:   weights,
		Provenance: schema.Provenance{
			GateComplianceOK: result.GateCompliance, GateStabilityOK: result.GateStability,
			GatePrecisionOK: result.GatePrecision, PQS: result.PQS, PQSVersion: "pqs-v1",
			ArtifactURI: webArtifactURI,
			TotalTokensIn: result.TotalTokensIn, TotalTokensOut: result.TotalTokensOut,
		},
		SimpleExpl:    simpleExpl,
		WELReplicates: replicates,
		WebArtifact:   webArtifactURI,
	}
	if usage != nil {
		resp.ChecksAllowed, resp.ChecksUsed, resp.Remaining = usage.ChecksAllowed, usage.ChecksUsed, usage.Remaining
	}

	if p.Audit != nil {
		rec := schema.RunRecord{
			RunID: result.RunID, ExecutionID: execID, Claim: cfg.Claim, Provider: cfg.Provider,
			LogicalModel: cfg.Model, PromptVersion: bundle.Version, SchemaVersion: schema.SchemaVersion,
			Mode: mode, CreatedAt: time.Now().UTC(), Prior: prior, Web: web, Combined: combined,
			ArtifactURI: webArtifactURI, GateComplianceOK: result.GateCompliance, GateStabilityOK: result.GateStability,
			GatePrecisionOK: result.GatePrecision, PQS: result.PQS, PQSVersion: "pqs-v1",
		}
		if aErr := p.Audit.InsertRunRecord(runCtx, rec); aErr != nil {
			p.Logger.Warn().Err(aErr).Str("run_id", result.RunID).Msg("failed to persist run record; response not affected")
		}
	}

	if !cfg.NoCache && p.RunCache != nil {
		_ = p.RunCache.Set(runCtx, mode+"|"+runCacheKey, resp)
	}

	return resp, nil
}

// fusionInputs translates a WebBlock's evidence_stats map (§3 WebBlock)
// into fusion.Inputs, reading each signal by name with a zero-value
// fallback so a partially-populated evidence map (e.g. the mock path's
// stub block) never panics.
func fusionInputs(prior schema.PriorBlock, web *schema.WebBlock, claim string) fusion.Inputs {
	in := fusion.Inputs{Prior: prior, Web: web, ClaimIsTimely: wel.HeuristicIsTimely(claim), TauDays: fusion.DefaultTauDays}
	if web == nil {
		return in
	}
	stats := web.EvidenceStats
	in.NDocs = int(stats["n_docs"])
	in.NDomains = int(stats["n_domains"])
	in.Dispersion = stats["dispersion"]
	in.JSONValidRate = stats["json_valid_rate"]
	age := stats["median_age_days"]
	if age == age { // exclude NaN (no dated documents observed)
		in.MedianAgeDays = age
	}
	return in
}

func tOrZero(t *int) int {
	if t == nil {
		return 0
	}
	return *t
}

func tplCount(cfg config.RunConfig, bundle config.PromptBundle) int {
	if cfg.T != nil {
		return *cfg.T
	}
	return len(bundle.Paraphrases)
}

func seedMarker(cfg config.RunConfig) string {
	if cfg.Seed != nil {
		return fmt.Sprintf("%d", *cfg.Seed)
	}
	return "derived"
}

func newExecutionID() string {
	id := uuid.NewString()
	if len(id) > 12 {
		id = id[:12]
	}
	return "exec-" + id
}

// runWEL drives the Web-Evidence Lens for a web_informed run. In mock
// mode it mirrors the prior with zero web weight rather than spinning up
// a fake retrieval/scoring round-trip, matching §8 scenario 2's
// "web.p equals prior.p, weights.w_web = 0.0" expectation — there is no
// live search backend to exercise in mock mode, so the mock path makes
// that explicit instead of fabricating evidence.
func (p *Pipeline) runWEL(ctx context.Context, cfg config.RunConfig, prior schema.PriorBlock, providerMode string) (*schema.WebBlock, []schema.WELReplicate, error) {
	if providerMode == "MOCK" {
		return &schema.WebBlock{P: prior.P, CI95: prior.CI95, EvidenceStats: map[string]float64{
			"n_docs": 0, "n_domains": 0, "median_age_days": 0, "json_valid_rate": 0, "dispersion": 0,
		}}, nil, nil
	}

	retriever := p.Retriever
	if retriever == nil {
		return nil, nil, fmt.Errorf("pipeline: web_informed run requires a configured retriever")
	}

	rawDocs, err := retriever.Search(ctx, cfg.Claim, 10)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: retrieval failed: %w", err)
	}
	docs := make([]schema.Doc, 0, len(rawDocs))
	for _, d := range rawDocs {
		docs = append(docs, wel.ToSchemaDoc(d))
	}

	alias := cfg.Model
	scorer, err := p.Providers.Get(alias)
	if err != nil {
		return nil, nil, err
	}

	block, replicates, err := wel.Run(ctx, scorer, cfg.Claim, docs, wel.DefaultOptions(cfg.Model))
	if err != nil {
		return nil, replicates, err
	}
	return &block, replicates, nil
}

// classifyRPLError maps rpl.Runner's plain errors to the typed taxonomy
// §7 requires at package boundaries, since pkg/rpl (grounded directly on
// rpl.py's control flow) returns fmt.Errorf rather than *schema.AppError.
func classifyRPLError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "exceeds max_prompt_chars"):
		return schema.Wrap(err, schema.ErrorTypePromptTooLong, "prompt exceeds configured length limit")
	case strings.Contains(msg, "too few valid samples"):
		return schema.Wrap(err, schema.ErrorTypeInsufficientSamples, "insufficient valid samples for aggregation")
	case strings.Contains(msg, "no adapter registered"):
		return schema.Wrap(err, schema.ErrorTypeUnknownModel, "unknown model")
	default:
		return schema.Wrap(err, schema.ErrorTypeInternal, "raw prior lens run failed")
	}
}
