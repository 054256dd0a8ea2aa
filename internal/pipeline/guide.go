package pipeline

import (
	"context"
	"errors"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/rs/zerolog"
)

// GuideGenerator asks the language model how to retrieve the receipt for each
// subscription payment.
type GuideGenerator struct {
	client    llm.Client
	maxTokens int
	log       zerolog.Logger
}

// NewGuideGenerator creates a GuideGenerator. maxTokens bounds the model answer.
func NewGuideGenerator(client llm.Client, maxTokens int, log zerolog.Logger) *GuideGenerator {
	return &GuideGenerator{client: client, maxTokens: maxTokens, log: log}
}

type guideResponse struct {
	Guides              *[]domain.ReceiptGuideItem `json:"guides"`
	GeneralInstructions string                     `json:"generalInstructions"`
}

// Generate returns one guide per subscription plus general tips. With no
// subscriptions the model is not called and the result is empty.
//
// The transactionId of each guide comes from the model and is not checked
// here; see ValidateGuides.
func (g *GuideGenerator) Generate(ctx context.Context, subs []domain.Transaction) (domain.ReceiptGuideResult, error) {
	if len(subs) == 0 {
		return emptyGuide(), nil
	}

	prompt, err := buildGuidePrompt(subs)
	if err != nil {
		return domain.ReceiptGuideResult{}, err
	}

	log := loggerFrom(ctx, g.log)
	var parsed guideResponse
	req := llm.Request{Prompt: prompt, MaxTokens: g.maxTokens}
	raw, err := completeJSON(ctx, g.client, StageGuide, req, &parsed, log)
	if err != nil {
		return domain.ReceiptGuideResult{}, err
	}
	if parsed.Guides == nil {
		return domain.ReceiptGuideResult{}, parseFailure(StageGuide, raw, errors.New(`response has no "guides" list`), log)
	}

	return domain.ReceiptGuideResult{
		Guides:              *parsed.Guides,
		GeneralInstructions: parsed.GeneralInstructions,
	}, nil
}

func emptyGuide() domain.ReceiptGuideResult {
	return domain.ReceiptGuideResult{Guides: []domain.ReceiptGuideItem{}}
}

// ValidateGuides keeps only guides whose transactionId is one of subs and
// returns the ids of the guides it dropped.
func ValidateGuides(result domain.ReceiptGuideResult, subs []domain.Transaction) (domain.ReceiptGuideResult, []int64) {
	known := make(map[int64]struct{}, len(subs))
	for _, t := range subs {
		known[t.ID] = struct{}{}
	}

	kept := make([]domain.ReceiptGuideItem, 0, len(result.Guides))
	var dropped []int64
	for _, item := range result.Guides {
		if _, ok := known[item.TransactionID]; !ok {
			dropped = append(dropped, item.TransactionID)
			continue
		}
		kept = append(kept, item)
	}
	return domain.ReceiptGuideResult{Guides: kept, GeneralInstructions: result.GeneralInstructions}, dropped
}
