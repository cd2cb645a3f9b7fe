// Package telemetry wires the Prometheus collectors the pipeline and HTTP
// surface report through, grounded on the example pack's client_golang
// usage pattern (promauto-registered collectors on a process-scoped
// registry, exposed via promhttp on /metrics).
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns one process-scoped Prometheus registry and the collectors a
// run reports through. A nil *Recorder is valid and every method is a
// no-op, so callers that don't configure telemetry pay nothing for it.
type Recorder struct {
	Registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	tokensTotal    *prometheus.CounterVec
	cacheHitRate   prometheus.Gauge
	complianceRate prometheus.Gauge
	stabilityScore prometheus.Gauge
	pqs            prometheus.Gauge
}

// New builds a Recorder on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofline_runs_total",
			Help: "Completed pipeline runs, partitioned by mode and outcome.",
		}, []string{"mode", "status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofline_run_duration_seconds",
			Help:    "Wall-clock duration of a pipeline run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		tokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofline_provider_tokens_total",
			Help: "Provider token usage, partitioned by direction (in/out).",
		}, []string{"direction"}),
		cacheHitRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_last_run_cache_hit_rate",
			Help: "Sample cache hit rate observed on the most recent run.",
		}),
		complianceRate: f.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_last_run_rpl_compliance_rate",
			Help: "RPL schema-compliance rate observed on the most recent run.",
		}),
		stabilityScore: f.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_last_run_stability_score",
			Help: "Stability score observed on the most recent run.",
		}),
		pqs: f.NewGauge(prometheus.GaugeOpts{
			Name: "proofline_last_run_pqs",
			Help: "Prompt quality score (0-100) observed on the most recent run.",
		}),
	}
}

// RunObservation carries the fields ObserveRun folds into the collectors.
type RunObservation struct {
	Mode           string
	Status         string
	Duration       time.Duration
	TokensIn       int
	TokensOut      int
	CacheHitRate   float64
	ComplianceRate float64
	StabilityScore float64
	PQS            int
}

// ObserveRun records one completed (or failed) pipeline run.
func (r *Recorder) ObserveRun(obs RunObservation) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(obs.Mode, obs.Status).Inc()
	r.runDuration.WithLabelValues(obs.Mode).Observe(obs.Duration.Seconds())
	r.tokensTotal.WithLabelValues("in").Add(float64(obs.TokensIn))
	r.tokensTotal.WithLabelValues("out").Add(float64(obs.TokensOut))
	if obs.Status == "ok" {
		r.cacheHitRate.Set(obs.CacheHitRate)
		r.complianceRate.Set(obs.ComplianceRate)
		r.stabilityScore.Set(obs.StabilityScore)
		r.pqs.Set(float64(obs.PQS))
	}
}
