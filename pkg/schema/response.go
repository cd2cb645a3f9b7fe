package schema

// SamplingInfo reports the plan a run executed (§4.10 "sampling").
type SamplingInfo struct {
	K int `json:"K"`
	R int `json:"R"`
	T int `json:"T"`
}

// AggregationInfo reports the bootstrap/aggregation parameters a run used
// (§4.10 "aggregation"), separate from AggregationResult's outputs.
type AggregationInfo struct {
	Method           string         `json:"method"`
	B                int            `json:"B"`
	Center           string         `json:"center"`
	Trim             float64        `json:"trim"`
	BootstrapSeed    uint64         `json:"bootstrap_seed"`
	NTemplates       int            `json:"n_templates"`
	CountsByTemplate map[string]int `json:"counts_by_template"`
	ImbalanceRatio   float64        `json:"imbalance_ratio"`
	TemplateIQRLogit float64        `json:"template_iqr_logit"`
	PromptCharLenMax int            `json:"prompt_char_len_max"`
}

// AggregatesInfo reports the probability-space outputs of a run
// (§4.10 "aggregates").
type AggregatesInfo struct {
	ProbTrueRPL       float64 `json:"prob_true_rpl"`
	CI95              [2]float64 `json:"ci95"`
	CIWidth           float64 `json:"ci_width"`
	StabilityScore    float64 `json:"stability_score"`
	StabilityBand     string  `json:"stability_band"`
	IsStable          bool    `json:"is_stable"`
	RPLComplianceRate float64 `json:"rpl_compliance_rate"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
}

// UsagePlan is the external quota/billing collaborator's reported state,
// passed through into the response (§6 "Quota, auth, email, billing
// endpoints are external collaborators").
type UsagePlan struct {
	Plan          string `json:"plan"`
	ChecksAllowed int    `json:"checks_allowed"`
	ChecksUsed    int    `json:"checks_used"`
	Remaining     int    `json:"remaining"`
}

// Weights is the normalized prior/web blend weight pair (§3 CombinedBlock
// invariant, surfaced at the top level of the response too for
// convenience, matching the original's shadow-field habit the spec's
// Open Question calls out — kept here as a read-only projection of
// Combined.WeightPrior/WeightWeb, not a second source of truth).
type Weights struct {
	Prior float64 `json:"prior"`
	Web   float64 `json:"web"`
}

// Provenance carries the non-numeric bookkeeping fields a response needs
// for audit/debugging: token totals, cost, and artifact location.
type Provenance struct {
	TotalTokensIn  int     `json:"total_tokens_in"`
	TotalTokensOut int     `json:"total_tokens_out"`
	CostUSD        float64 `json:"cost_usd"`
	ArtifactURI    string  `json:"artifact_uri,omitempty"`
	GateComplianceOK bool  `json:"gate_compliance_ok"`
	GateStabilityOK  bool  `json:"gate_stability_ok"`
	GatePrecisionOK  bool  `json:"gate_precision_ok"`
	PQS              int   `json:"pqs"`
	PQSVersion       string `json:"pqs_version"`
}

// RunResponse is the canonical HTTP response shape for POST /checks/run
// (§6). It is also what pkg/pipeline returns for CLI/library callers, and
// what a cached run replays byte-for-byte apart from ExecutionID
// (§8 "Idempotence").
type RunResponse struct {
	ExecutionID          string        `json:"execution_id"`
	RunID                string        `json:"run_id"`
	Claim                string        `json:"claim"`
	Model                string        `json:"model"`
	LogicalModel         string        `json:"logical_model"`
	Provider             string        `json:"provider"`
	ResolvedLogicalModel string        `json:"resolved_logical_model"`
	PromptVersion        string        `json:"prompt_version"`
	SchemaVersion        string        `json:"schema_version"`
	Sampling             SamplingInfo  `json:"sampling"`
	Aggregation          AggregationInfo `json:"aggregation"`
	Aggregates           AggregatesInfo  `json:"aggregates"`
	Mock                 bool          `json:"mock"`
	UsagePlan            *UsagePlan    `json:"usage_plan,omitempty"`
	ChecksAllowed        int           `json:"checks_allowed,omitempty"`
	ChecksUsed           int           `json:"checks_used,omitempty"`
	Remaining            int           `json:"remaining,omitempty"`
	Mode                 string        `json:"mode"`
	Prior                PriorBlock    `json:"prior"`
	Web                  *WebBlock     `json:"web,omitempty"`
	Combined             CombinedBlock `json:"combined"`
	Weights              *Weights      `json:"weights,omitempty"`
	Provenance           Provenance    `json:"provenance"`
	SimpleExpl           *SimpleExplV1 `json:"simple_expl,omitempty"`
	WELReplicates        []WELReplicate `json:"wel_replicates,omitempty"`
	WebArtifact          string        `json:"web_artifact,omitempty"`
}
