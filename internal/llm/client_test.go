package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dvloznov/missing-receipts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotConfig *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = cfg
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 30,
		},
	}
}

func TestGeminiClient_Complete(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`{"subscriptions":[]}`)}
	c := &GeminiClient{models: gen, defaultModel: DefaultGeminiModel}

	resp, err := c.Complete(context.Background(), Request{Prompt: "classify", System: "be terse", MaxTokens: 2000})
	require.NoError(t, err)

	assert.Equal(t, `{"subscriptions":[]}`, resp.Text)
	assert.Equal(t, int64(120), resp.InputTokens)
	assert.Equal(t, int64(30), resp.OutputTokens)
	assert.Equal(t, DefaultGeminiModel, gen.gotModel)
	assert.Equal(t, int32(2000), gen.gotConfig.MaxOutputTokens)
	require.NotNil(t, gen.gotConfig.SystemInstruction)
}

func TestGeminiClient_Errors(t *testing.T) {
	c := &GeminiClient{models: &fakeGenerator{err: errors.New("quota exceeded")}, defaultModel: "m"}
	_, err := c.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "quota exceeded")

	c = &GeminiClient{models: &fakeGenerator{resp: textResponse("")}, defaultModel: "m"}
	_, err = c.Complete(context.Background(), Request{Prompt: "p", Model: "override"})
	assert.ErrorContains(t, err, "empty response from model override")
}

type fakeMessages struct {
	msg    *anthropic.Message
	err    error
	params anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = body
	return f.msg, f.err
}

func TestAnthropicClient_Complete(t *testing.T) {
	fm := &fakeMessages{msg: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: `{"subject":"s","body":"b"}`}},
		Usage:   anthropic.Usage{InputTokens: 50, OutputTokens: 10},
	}}
	c := &AnthropicClient{messages: fm, defaultModel: DefaultAnthropicModel}

	resp, err := c.Complete(context.Background(), Request{Prompt: "compose", System: "sys"})
	require.NoError(t, err)

	assert.Equal(t, `{"subject":"s","body":"b"}`, resp.Text)
	assert.Equal(t, int64(50), resp.InputTokens)
	assert.Equal(t, int64(defaultAnthropicMaxTokens), fm.params.MaxTokens)
	assert.Equal(t, anthropic.Model(DefaultAnthropicModel), fm.params.Model)
	require.Len(t, fm.params.System, 1)
	assert.Equal(t, "sys", fm.params.System[0].Text)
}

func TestAnthropicClient_NoTextBlock(t *testing.T) {
	fm := &fakeMessages{msg: &anthropic.Message{}}
	c := &AnthropicClient{messages: fm, defaultModel: "m"}

	_, err := c.Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorContains(t, err, "no text content")
}

func TestNewAnthropicClient_DefaultModel(t *testing.T) {
	c := NewAnthropicClient(config.LLMConfig{Provider: "anthropic", Model: "gemini-2.5-flash", APIKey: "k"})
	assert.Equal(t, DefaultAnthropicModel, c.defaultModel)

	c = NewAnthropicClient(config.LLMConfig{Provider: "anthropic", Model: "claude-3-5-haiku-latest", APIKey: "k"})
	assert.Equal(t, "claude-3-5-haiku-latest", c.defaultModel)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "openai"})
	assert.ErrorContains(t, err, `unknown provider "openai"`)
}
