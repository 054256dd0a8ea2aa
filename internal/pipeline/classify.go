package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/dvloznov/missing-receipts/internal/logger"
	"github.com/rs/zerolog"
)

// maxLoggedResponse caps raw model output written to the log.
const maxLoggedResponse = 2000

// completeJSON sends req and decodes the first JSON object of the answer into v.
// It returns the raw answer. A failed call becomes a ServiceError, an
// unusable answer a ParseError.
func completeJSON(ctx context.Context, client llm.Client, stage Stage, req llm.Request, v interface{}, log zerolog.Logger) (string, error) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return "", &ServiceError{Stage: stage, Err: err}
	}

	log.Debug().
		Str("stage", string(stage)).
		Int64("input_tokens", resp.InputTokens).
		Int64("output_tokens", resp.OutputTokens).
		Dur("duration", time.Since(start)).
		Str("raw_response", logger.Truncate(resp.Text, maxLoggedResponse)).
		Msg("model response received")

	if err := llm.DecodeJSONObject(resp.Text, v); err != nil {
		return resp.Text, parseFailure(stage, resp.Text, err, log)
	}
	return resp.Text, nil
}

// parseFailure logs the raw answer and returns the ParseError for it.
func parseFailure(stage Stage, raw string, err error, log zerolog.Logger) error {
	log.Error().
		Err(err).
		Str("stage", string(stage)).
		Str("raw_response", logger.Truncate(raw, maxLoggedResponse)).
		Msg("could not parse model response")
	return &ParseError{Stage: stage, Raw: raw, Err: err}
}

// loggerFrom prefers the run-scoped logger the driver stores in ctx.
func loggerFrom(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l, ok := ctx.Value(logger.LoggerKey).(zerolog.Logger); ok {
		return l
	}
	return fallback
}

// Classifier sorts normalized transactions into subscriptions and physical
// purchases using the language model.
type Classifier struct {
	client    llm.Client
	maxTokens int
	log       zerolog.Logger
}

// NewClassifier creates a Classifier. maxTokens bounds the model answer.
func NewClassifier(client llm.Client, maxTokens int, log zerolog.Logger) *Classifier {
	return &Classifier{client: client, maxTokens: maxTokens, log: log}
}

type classificationResponse struct {
	Subscriptions *[]int64 `json:"subscriptions"`
	Physical      *[]int64 `json:"physical"`
}

// Classify returns the two-bucket partition of txs. Ids the model invents are
// dropped so every returned id belongs to txs.
func (c *Classifier) Classify(ctx context.Context, txs []domain.NormalizedTransaction) (domain.ClassificationResult, error) {
	prompt, err := buildClassificationPrompt(txs)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	log := loggerFrom(ctx, c.log)
	var parsed classificationResponse
	req := llm.Request{Prompt: prompt, MaxTokens: c.maxTokens}
	raw, err := completeJSON(ctx, c.client, StageClassify, req, &parsed, log)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	if parsed.Subscriptions == nil && parsed.Physical == nil {
		return domain.ClassificationResult{}, parseFailure(StageClassify, raw,
			errors.New(`response has neither "subscriptions" nor "physical"`), log)
	}

	known := make(map[int64]struct{}, len(txs))
	for _, t := range txs {
		known[t.ID] = struct{}{}
	}

	return domain.ClassificationResult{
		Subscriptions: keepKnown(parsed.Subscriptions, known, "subscriptions", log),
		Physical:      keepKnown(parsed.Physical, known, "physical", log),
	}, nil
}

// keepKnown drops ids outside known and repeated ids, keeping first-seen order.
func keepKnown(ids *[]int64, known map[int64]struct{}, bucket string, log zerolog.Logger) []int64 {
	out := []int64{}
	if ids == nil {
		return out
	}
	seen := make(map[int64]struct{}, len(*ids))
	for _, id := range *ids {
		if _, ok := known[id]; !ok {
			log.Warn().Int64("transaction_id", id).Str("bucket", bucket).Msg("model returned unknown transaction id, ignoring")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
