package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAICompatAliases lists the model aliases routed through the
// OpenAI-compatible chat-completions adapter.
var OpenAICompatAliases = []string{"gpt-5", "gpt-5-mini", "gpt-4.1"}

// OpenAICompatClient scores claims against any OpenAI-compatible
// chat-completions endpoint (OpenAI itself, or a compatible gateway).
//
// This adapter is the one standard-library exception in pkg/provider
// (noted in DESIGN.md under C4): no example repo in the pack imports an
// OpenAI Go SDK, so the HTTP client is hand-rolled on net/http/encoding/json
// rather than adopting a dependency nothing in the corpus demonstrates.
type OpenAICompatClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAICompatClient builds a chat-completions scorer client. baseURL
// defaults to the public OpenAI API.
func NewOpenAICompatClient(apiKey, baseURL, model string) *OpenAICompatClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-5"
	}
	return &OpenAICompatClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Score implements Scorer for the OpenAI-compatible backend.
func (c *OpenAICompatClient) Score(ctx context.Context, req Request) (Result, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	userText := fmt.Sprintf("%s\n\n%s", req.ParaphraseText, req.UserTemplate)
	body := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemText},
			{Role: "user", Content: userText},
		},
		MaxTokens: req.MaxOutputTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("openai_compat: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("openai_compat: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("openai_compat (model: %s) request failed: %w", model, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("openai_compat: failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("openai_compat (model: %s) returned status %d: %s", model, resp.StatusCode, rawBody)
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Result{}, fmt.Errorf("openai_compat: failed to decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Result{}, fmt.Errorf("openai_compat (model: %s) returned no choices", model)
	}

	promptHash := sha256.Sum256([]byte(req.SystemText + "\n\n" + userText))
	return Result{
		RawText: decoded.Choices[0].Message.Content,
		Meta: Meta{
			ProviderModelID: decoded.Model,
			PromptSHA256:    hex.EncodeToString(promptHash[:]),
			ResponseID:      decoded.ID,
			CreatedUnix:     float64(decoded.Created),
		},
		Timing: Timing{LatencyMS: latency.Milliseconds()},
		Telemetry: Telemetry{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
		},
	}, nil
}

// RegisterOpenAICompat wires an OpenAICompatClient into a registry.
func RegisterOpenAICompat(r *Registry, client *OpenAICompatClient, aliases ...string) error {
	if len(aliases) == 0 {
		aliases = OpenAICompatAliases
	}
	return r.Register(client.Score, aliases...)
}
