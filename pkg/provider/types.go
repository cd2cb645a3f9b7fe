// Package provider implements the RPL scoring-adapter contract of spec
// §4.4: a claim plus a template/paraphrase pair goes in, a raw JSON belief
// object plus provenance metadata comes out. It is grounded on
// original_source/heretix/provider/{base,registry,factory,mock}.py, with
// the live adapters ported/generalized from
// blackcoderx-falcon/pkg/llm/{client,gemini}.go.
package provider

import (
	"context"
	"fmt"
)

// Request carries everything an adapter needs to produce one RPL sample.
type Request struct {
	Claim           string
	SystemText      string
	UserTemplate    string
	ParaphraseText  string
	Model           string
	MaxOutputTokens int
}

// Meta carries provenance about the call that produced a Result.
type Meta struct {
	ProviderModelID string
	PromptSHA256    string
	ResponseID      string
	CreatedUnix     float64
}

// Timing carries latency information about the call that produced a Result.
type Timing struct {
	LatencyMS int64
}

// Telemetry carries optional token-usage counters, when the backend reports
// them.
type Telemetry struct {
	InputTokens  int
	OutputTokens int
}

// Result is the adapter's raw response: the model's output text in
// RawText, not yet parsed or validated, plus provenance. Callers run
// RawText through pkg/jsonrepair to obtain a schema-validated object.
type Result struct {
	RawText   string
	Meta      Meta
	Timing    Timing
	Telemetry Telemetry
	Warnings  []string
}

// Scorer is the function signature every adapter registers: produce one
// raw scoring result for a (claim, templates, model) tuple.
type Scorer func(ctx context.Context, req Request) (Result, error)

// UnknownModelError is returned by Registry.Get when no adapter is
// registered for the requested alias.
type UnknownModelError struct{ Model string }

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("provider: no adapter registered for model=%q", e.Model)
}
