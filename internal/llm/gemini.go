package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/missing-receipts/internal/config"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when neither the config nor the request names a model.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the part of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls Gemini through the Google GenAI SDK.
type GeminiClient struct {
	models       contentGenerator
	defaultModel string
}

// NewGeminiClient creates the GenAI client once. With the "vertex" backend it
// uses Application Default Credentials for cfg.GCPProject; otherwise cfg.APIKey,
// falling back to GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if cfg.GeminiBackend == "vertex" {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.GCPProject
		cc.Location = cfg.GCPLocation
	} else {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{models: client.Models, defaultModel: model}, nil
}

// Complete sends one user turn and returns the concatenated text of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	gc := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, model, genai.Text(req.Prompt), gc)
	if err != nil {
		return Response{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	out := Response{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	if out.Text == "" {
		return out, fmt.Errorf("gemini: empty response from model %s", model)
	}
	return out, nil
}
