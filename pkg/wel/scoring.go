package wel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/proofline/proofline/pkg/jsonrepair"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/schema"
)

// welSystem is the Web Evidence Lens system instruction, ported verbatim
// from original_source/heretix_wel/scoring.py's WEL_SYSTEM.
const welSystem = `You are the Web Evidence Lens (WEL).
Estimate P(true) for the claim using only the provided snippets.
- Ignore external knowledge.
- Point out conflicts or missing evidence in notes.
- Return strict JSON only.`

// welSchemaInstructions is the WEL_SCHEMA prompt fragment telling the
// model the exact JSON shape to emit, mirroring pkg/schema's WELDocV1.
const welSchemaInstructions = `Return ONLY a JSON object with:
{
  "stance_prob_true": number between 0 and 1,
  "stance_label": "supports" | "contradicts" | "mixed" | "irrelevant",
  "support_bullets": array of 1-4 short strings,
  "oppose_bullets": array of 1-4 short strings,
  "notes": array of 0-3 short strings
}`

// CallWELOnce asks a registered provider adapter to evaluate one snippet
// bundle and returns the validated stance object plus the prompt's SHA-256,
// generalizing original_source/heretix_wel/scoring.py's call_wel_once onto
// the shared provider.Scorer contract.
func CallWELOnce(ctx context.Context, scorer provider.Scorer, claim, bundleText, model string) (schema.WELDocV1, string, []string, error) {
	instructions := welSystem + "\n\n" + welSchemaInstructions
	promptHash := sha256Hex(instructions + bundleText)

	req := provider.Request{
		Claim:          claim,
		SystemText:     welSystem,
		UserTemplate:   welSchemaInstructions,
		ParaphraseText: bundleText,
		Model:          model,
	}
	res, err := scorer(ctx, req)
	if err != nil {
		return schema.WELDocV1{}, promptHash, nil, err
	}

	obj, warnings, err := jsonrepair.ExtractAndValidate(res.RawText, schema.KindWELDoc)
	if err != nil {
		return schema.WELDocV1{}, promptHash, warnings, err
	}

	doc := schema.WELDocV1{
		StanceProbTrue: obj["stance_prob_true"].(float64),
		StanceLabel:    schema.StanceLabel(obj["stance_label"].(string)),
		SupportBullets: toStringSlice(obj["support_bullets"]),
		OpposeBullets:  toStringSlice(obj["oppose_bullets"]),
		Notes:          toStringSlice(obj["notes"]),
	}
	return doc, promptHash, warnings, nil
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// extractJSONObject is a small tolerant decoder used only for the
// resolver's per-document verdict calls, which have no formal pkg/schema
// entry of their own (they are an internal resolver detail, not a
// provider-facing closed schema). Unlike jsonrepair.ExtractAndValidate it
// performs no schema validation and never returns an error — a malformed
// payload degrades to "not an object" and the caller treats it as an
// unclear verdict.
func extractJSONObject(rawText string) (map[string]any, bool) {
	var data any
	if err := json.Unmarshal([]byte(rawText), &data); err != nil {
		return nil, false
	}
	obj, ok := data.(map[string]any)
	return obj, ok
}
