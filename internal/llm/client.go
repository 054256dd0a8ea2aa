// Package llm is the language-model invocation boundary: a prompt goes in and
// free text comes out. Any structure expected from the text is enforced by the
// caller, typically with DecodeJSONObject.
package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/missing-receipts/internal/config"
)

// Request is one completion call.
type Request struct {
	Model     string // empty means the client's default model
	System    string // optional system instruction
	Prompt    string
	MaxTokens int
}

// Response is the raw decoded text plus token usage when the provider reports it.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Client sends prompts to a language model. Implementations are long-lived and
// safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg)
	case "anthropic":
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
