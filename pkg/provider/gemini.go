package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiAliases lists the model aliases the Gemini adapter answers for.
// Generalized from blackcoderx-falcon/pkg/llm/gemini.go's NewGeminiClient,
// whose system-instruction-extraction pattern this adapter reuses.
var GeminiAliases = []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite"}

// GeminiClient scores claims via the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds a Gemini-backed scorer client for a specific
// model. apiKey may be empty only if GOOGLE_API_KEY / GEMINI_API_KEY is set
// in the environment; genai.NewClient resolves it itself in that case.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Score implements Scorer for the Gemini backend: the system_text becomes
// the system instruction, and the paraphrase/template pair is concatenated
// into the single user turn, mirroring the (system, user) split every
// other adapter in this package uses.
func (c *GeminiClient) Score(ctx context.Context, req Request) (Result, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	userText := fmt.Sprintf("%s\n\n%s", req.ParaphraseText, req.UserTemplate)
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(userText)}},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemText)},
		},
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	latency := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("gemini (model: %s) request failed: %w", model, err)
	}

	text := resp.Text()
	promptHash := sha256.Sum256([]byte(req.SystemText + "\n\n" + userText))

	result := Result{
		RawText: text,
		Meta: Meta{
			ProviderModelID: model,
			PromptSHA256:    hex.EncodeToString(promptHash[:]),
			CreatedUnix:     float64(time.Now().Unix()),
		},
		Timing: Timing{LatencyMS: latency.Milliseconds()},
	}
	if resp.UsageMetadata != nil {
		result.Telemetry = Telemetry{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
		result.Meta.ResponseID = fmt.Sprintf("gemini_%d", resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}

// RegisterGemini wires a GeminiClient into a registry under every alias in
// GeminiAliases plus any caller-supplied extras (e.g. a capability file's
// api_model_map keys).
func RegisterGemini(r *Registry, client *GeminiClient, aliases ...string) error {
	if len(aliases) == 0 {
		aliases = GeminiAliases
	}
	return r.Register(client.Score, aliases...)
}
