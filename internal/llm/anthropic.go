package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dvloznov/missing-receipts/internal/config"
)

// DefaultAnthropicModel is used when neither the config nor the request names a model.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

const defaultAnthropicMaxTokens = 2000

// messageCreator is the part of anthropic.MessageService the client uses.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient calls Claude through the Anthropic Messages API.
type AnthropicClient struct {
	messages     messageCreator
	defaultModel string
}

// NewAnthropicClient builds the client once. An empty cfg.APIKey lets the SDK
// read ANTHROPIC_API_KEY from the environment.
func NewAnthropicClient(cfg config.LLMConfig) *AnthropicClient {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := anthropic.NewClient(opts...)

	// The shared default model names a Gemini model.
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{messages: &client.Messages, defaultModel: model}
}

// Complete sends one user message and returns the first text block.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	out := Response{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			out.Text = block.Text
			return out, nil
		}
	}
	return out, fmt.Errorf("anthropic: no text content in response from model %s", model)
}
