package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAliases lists the model aliases the Claude adapter answers for.
var AnthropicAliases = []string{"claude-opus-4", "claude-sonnet-4", "claude-haiku-4"}

// AnthropicClient scores claims via the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient builds a Claude-backed scorer client. apiKey may be
// empty if ANTHROPIC_API_KEY is set; the SDK resolves it itself.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = "claude-sonnet-4"
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Score implements Scorer for the Anthropic backend.
func (c *AnthropicClient) Score(ctx context.Context, req Request) (Result, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	userText := fmt.Sprintf("%s\n\n%s", req.ParaphraseText, req.UserTemplate)
	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.SystemText},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	})
	latency := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("anthropic (model: %s) request failed: %w", model, err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	promptHash := sha256.Sum256([]byte(req.SystemText + "\n\n" + userText))
	return Result{
		RawText: text,
		Meta: Meta{
			ProviderModelID: string(msg.Model),
			PromptSHA256:    hex.EncodeToString(promptHash[:]),
			ResponseID:      msg.ID,
			CreatedUnix:     float64(time.Now().Unix()),
		},
		Timing: Timing{LatencyMS: latency.Milliseconds()},
		Telemetry: Telemetry{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

// RegisterAnthropic wires an AnthropicClient into a registry.
func RegisterAnthropic(r *Registry, client *AnthropicClient, aliases ...string) error {
	if len(aliases) == 0 {
		aliases = AnthropicAliases
	}
	return r.Register(client.Score, aliases...)
}
