package schema

import "time"

// BeliefLabel is the closed label set for RPLSampleV1.belief.label.
type BeliefLabel string

const (
	BeliefVeryUnlikely BeliefLabel = "very_unlikely"
	BeliefUnlikely     BeliefLabel = "unlikely"
	BeliefUncertain    BeliefLabel = "uncertain"
	BeliefLikely       BeliefLabel = "likely"
	BeliefVeryLikely   BeliefLabel = "very_likely"
)

// StanceLabel is the closed label set for WELDocV1.stance_label.
type StanceLabel string

const (
	StanceSupports    StanceLabel = "supports"
	StanceContradicts StanceLabel = "contradicts"
	StanceMixed       StanceLabel = "mixed"
	StanceIrrelevant  StanceLabel = "irrelevant"
)

// Belief is the nested belief object of RPLSampleV1.
type Belief struct {
	ProbTrue float64     `json:"prob_true"`
	Label    BeliefLabel `json:"label"`
}

// Flags carries provider self-reported refusal/off-topic signals.
type Flags struct {
	Refused  bool `json:"refused"`
	OffTopic bool `json:"off_topic"`
}

// RPLSampleV1 is the closed schema a provider adapter must parse an RPL
// sampling response into (§4.1).
type RPLSampleV1 struct {
	Belief        Belief   `json:"belief"`
	Reasons       []string `json:"reasons"`
	Assumptions   []string `json:"assumptions"`
	Uncertainties []string `json:"uncertainties"`
	Flags         Flags    `json:"flags"`
}

// WELDocV1 is the closed schema for one WEL replicate's stance output.
type WELDocV1 struct {
	StanceProbTrue float64     `json:"stance_prob_true"`
	StanceLabel    StanceLabel `json:"stance_label"`
	SupportBullets []string    `json:"support_bullets"`
	OpposeBullets  []string    `json:"oppose_bullets"`
	Notes          []string    `json:"notes"`
}

// SimpleExplV1 is the closed schema for the narrative explanation adapter.
type SimpleExplV1 struct {
	Title          string   `json:"title"`
	BodyParagraphs []string `json:"body_paragraphs"`
}

// Sample is one provider response accepted into (or rejected from)
// aggregation. See spec §3 "Sample".
type Sample struct {
	PromptSHA256    string  `json:"prompt_sha256"`
	ParaphraseIdx   int     `json:"paraphrase_idx"`
	ReplicateIdx    int     `json:"replicate_idx"`
	ProbTrue        float64 `json:"prob_true"`
	Logit           float64 `json:"logit"`
	JSONValid       int     `json:"json_valid"`
	TokensIn        int     `json:"tokens_in"`
	TokensOut       int     `json:"tokens_out"`
	LatencyMS       int     `json:"latency_ms"`
	ProviderModelID string  `json:"provider_model_id"`
}

// Valid reports whether the sample is valid-for-aggregation.
func (s Sample) Valid() bool { return s.JSONValid == 1 }

// AggregationResult is the output of the RPL aggregator (C8/C9).
type AggregationResult struct {
	ProbTrue           float64        `json:"prob_true"`
	CI95               [2]float64     `json:"ci95"`
	CIWidth            float64        `json:"ci_width"`
	TemplateIQRLogit   float64        `json:"template_iqr_logit"`
	StabilityScore     float64        `json:"stability_score"`
	StabilityBand      string         `json:"stability_band"`
	ImbalanceRatio     float64        `json:"imbalance_ratio"`
	CountsByTemplate   map[string]int `json:"counts_by_template"`
	NTemplates         int            `json:"n_templates"`
	RPLComplianceRate  float64        `json:"rpl_compliance_rate"`
	CacheHitRate       float64        `json:"cache_hit_rate"`
	Method             string         `json:"method"`
	BootstrapSeed      uint64         `json:"bootstrap_seed"`
}

// CILo and CIHi are accessor helpers for the legacy shadow ci_lo/ci_hi
// fields some consumers expect (see DESIGN.md Open Question resolution).
func (a AggregationResult) CILo() float64 { return a.CI95[0] }
func (a AggregationResult) CIHi() float64 { return a.CI95[1] }

// PriorBlock is the model-only ("RPL") estimate block of a run response.
type PriorBlock struct {
	P              float64    `json:"p"`
	CI95           [2]float64 `json:"ci95"`
	Stability      float64    `json:"stability"`
	ComplianceRate float64    `json:"compliance_rate"`
}

func (b PriorBlock) CILo() float64 { return b.CI95[0] }
func (b PriorBlock) CIHi() float64 { return b.CI95[1] }

// WebBlock is the web-evidence ("WEL") estimate block.
type WebBlock struct {
	P               float64    `json:"p"`
	CI95            [2]float64 `json:"ci95"`
	EvidenceStats   map[string]float64 `json:"evidence_stats"`
	Resolved        bool       `json:"resolved"`
	ResolvedTruth   *bool      `json:"resolved_truth,omitempty"`
	ResolvedReason  string     `json:"resolved_reason,omitempty"`
	ResolvedCitations []Citation `json:"resolved_citations,omitempty"`
	Support         float64    `json:"support,omitempty"`
	Contradict      float64    `json:"contradict,omitempty"`
	Domains         int        `json:"domains,omitempty"`
}

func (b WebBlock) CILo() float64 { return b.CI95[0] }
func (b WebBlock) CIHi() float64 { return b.CI95[1] }

// Citation is one resolver-contributing document citation.
type Citation struct {
	URL         string   `json:"url"`
	Domain      string   `json:"domain"`
	Quote       string   `json:"quote,omitempty"`
	Stance      string   `json:"stance"`
	Field       string   `json:"field,omitempty"`
	Value       string   `json:"value,omitempty"`
	Weight      float64  `json:"weight"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// CombinedLabel is the closed label set for CombinedBlock.Label.
type CombinedLabel string

const (
	LabelLikelyTrue  CombinedLabel = "Likely true"
	LabelLikelyFalse CombinedLabel = "Likely false"
	LabelUncertain   CombinedLabel = "Uncertain"
)

// LabelFor maps a probability to its combined label per spec §3 thresholds.
func LabelFor(p float64) CombinedLabel {
	switch {
	case p >= 0.60:
		return LabelLikelyTrue
	case p <= 0.40:
		return LabelLikelyFalse
	default:
		return LabelUncertain
	}
}

// CombinedBlock is the fused prior+web estimate.
type CombinedBlock struct {
	P             float64       `json:"p"`
	CI95          [2]float64    `json:"ci95"`
	Label         CombinedLabel `json:"label"`
	WeightPrior   float64       `json:"weight_prior"`
	WeightWeb     float64       `json:"weight_web"`
	Resolved      bool          `json:"resolved,omitempty"`
	ResolvedTruth *bool         `json:"resolved_truth,omitempty"`
}

func (b CombinedBlock) CILo() float64 { return b.CI95[0] }
func (b CombinedBlock) CIHi() float64 { return b.CI95[1] }

// Doc is a retrieved web document (§3 "Doc").
type Doc struct {
	URL                string     `json:"url"`
	Domain             string     `json:"domain"`
	Title              string     `json:"title"`
	Snippet            string     `json:"snippet"`
	PageText           string     `json:"page_text,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	PublishedMethod    string     `json:"published_method,omitempty"`
	PublishedConfidence float64   `json:"published_confidence,omitempty"`
}

// WELReplicate is one shard's scoring result (§3 "WELReplicate").
type WELReplicate struct {
	ReplicateIdx   int      `json:"replicate_idx"`
	Docs           []Doc    `json:"docs"`
	PWeb           float64  `json:"p_web"`
	SupportBullets []string `json:"support_bullets"`
	OpposeBullets  []string `json:"oppose_bullets"`
	Notes          []string `json:"notes"`
	JSONValid      bool     `json:"json_valid"`
}

// RunRecord is the durable audit row for one run (§3 "RunRecord").
type RunRecord struct {
	RunID          string     `json:"run_id"`
	ExecutionID    string     `json:"execution_id"`
	Claim          string     `json:"claim"`
	Provider       string     `json:"provider"`
	LogicalModel   string     `json:"logical_model"`
	PromptVersion  string     `json:"prompt_version"`
	SchemaVersion  string     `json:"schema_version"`
	Mode           string     `json:"mode"`
	CreatedAt      time.Time  `json:"created_at"`
	Prior          PriorBlock `json:"prior"`
	Web            *WebBlock  `json:"web,omitempty"`
	Combined       CombinedBlock `json:"combined"`
	TotalTokensIn  int        `json:"total_tokens_in"`
	TotalTokensOut int        `json:"total_tokens_out"`
	CostUSD        float64    `json:"cost_usd"`
	ArtifactURI    string     `json:"artifact_uri,omitempty"`
	GateComplianceOK bool     `json:"gate_compliance_ok"`
	GateStabilityOK  bool     `json:"gate_stability_ok"`
	GatePrecisionOK  bool     `json:"gate_precision_ok"`
	PQS              int      `json:"pqs"`
	PQSVersion       string   `json:"pqs_version"`
}

// SchemaVersion is the current canonical response schema version.
const SchemaVersion = "2026-01-rpl-wel-v1"
