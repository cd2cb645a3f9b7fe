package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// MockAlias is the registered alias for the deterministic mock scorer,
// selected by provider_mode=MOCK in spec §4.4.
const MockAlias = "mock"

func init() {
	_ = Default.Register(ScoreMock, MockAlias)
}

// ScoreMock produces a deterministic, network-free belief sample: a seed is
// derived from SHA-256(prompt_sha256 || claim), and a probability is drawn
// from N(0.25, 0.02^2) clipped to [0.05, 0.95], matching
// original_source/heretix/provider/mock.py's score_claim_mock exactly.
func ScoreMock(_ context.Context, req Request) (Result, error) {
	userText := strings.ReplaceAll(req.ParaphraseText, "{CLAIM}", req.Claim) +
		"\n\n" + strings.ReplaceAll(req.UserTemplate, "{CLAIM}", req.Claim)
	fullInstructions := req.SystemText + "\n\nMOCK"
	promptSHA := sha256.Sum256([]byte(fullInstructions + "\n\n" + userText))
	promptHex := hex.EncodeToString(promptSHA[:])

	seedSrc := sha256.Sum256([]byte(promptHex + "|" + req.Claim))
	seedHex := hex.EncodeToString(seedSrc[:])[:8]
	seedBytes, _ := hex.DecodeString(seedHex)
	seed := binary.BigEndian.Uint32(seedBytes)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b9))
	jitter := standardNormal(rng) * 0.02
	p := 0.25 + jitter
	p = math.Max(0.05, math.Min(0.95, p))
	p = math.Round(p*100) / 100

	model := req.Model
	if model == "" {
		model = "gpt-5"
	}

	rawText := fmt.Sprintf(`{
  "belief": {"prob_true": %.2f, "label": %q},
  "reasons": ["Mock: prior-based estimation only", "Mock: paraphrase sensitivity check"],
  "assumptions": ["Assume reasonable scope/definitions", "Assume no retrieval used"],
  "uncertainties": ["Mock: potential wording artifacts", "Mock: underspecification risk"],
  "flags": {"refused": false, "off_topic": false}
}`, p, mockBeliefLabel(p))

	return Result{
		RawText: rawText,
		Meta: Meta{
			ProviderModelID: model + "-MOCK",
			PromptSHA256:    promptHex,
			ResponseID:      "mock_" + promptHex[:12],
			CreatedUnix:     float64(time.Now().Unix()),
		},
		Timing: Timing{LatencyMS: 5},
	}, nil
}

// mockBeliefLabel buckets a probability into the five-level belief label
// set RPLSampleV1.belief.label requires.
func mockBeliefLabel(p float64) string {
	switch {
	case p < 0.2:
		return "very_unlikely"
	case p < 0.4:
		return "unlikely"
	case p < 0.6:
		return "uncertain"
	case p < 0.8:
		return "likely"
	default:
		return "very_likely"
	}
}

// standardNormal draws a standard-normal sample via the Box-Muller
// transform. math/rand/v2's Rand exposes only uniform generators
// (Float64, IntN, ...), so the Gaussian jitter used by the mock scorer is
// built on top of those rather than reaching for a stats dependency that
// is not present anywhere in the example pack.
func standardNormal(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	if u1 <= 1e-12 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
