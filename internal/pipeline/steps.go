package pipeline

import (
	"context"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/rs/zerolog"
)

// Status is the position of one invocation in the pipeline state machine.
type Status string

const (
	StatusNew             Status = "new"
	StatusFetched         Status = "fetched"
	StatusNormalized      Status = "normalized"
	StatusClassified      Status = "classified"
	StatusEnriched        Status = "enriched"
	StatusGuidesGenerated Status = "guides_generated"
	StatusComposed        Status = "composed"
	StatusDone            Status = "done"
	StatusFailed          Status = "failed"
)

// Step is a single step of the pipeline.
type Step interface {
	Stage() Stage
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds everything derived during one invocation. It is owned by
// that invocation and never shared.
type PipelineState struct {
	RunID   string
	Request ledger.FetchRequest

	Status      Status
	FailedStage Stage

	Batch          *domain.Batch
	Normalized     []domain.NormalizedTransaction
	Classification domain.ClassificationResult
	Enriched       domain.EnrichedResult
	Guide          domain.ReceiptGuideResult
	Draft          domain.EmailDraft
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure, leaving
// state in StatusFailed. The error is a *StageError.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		err := ctx.Err()
		if err == nil {
			err = step.Execute(ctx, state)
		}
		if err != nil {
			state.Status = StatusFailed
			state.FailedStage = step.Stage()
			return &StageError{Step: i + 1, Stage: step.Stage(), Err: err}
		}
	}
	return nil
}

// validateTokenStep rejects a request without a customer token.
type validateTokenStep struct{}

func (validateTokenStep) Stage() Stage { return StageValidate }

func (validateTokenStep) Execute(_ context.Context, state *PipelineState) error {
	if state.Request.Token == "" {
		return &ValidationError{Field: "token", Reason: "missing"}
	}
	return nil
}

// fetchStep loads the raw batch from the transaction source.
type fetchStep struct {
	source ledger.Source
}

func (s *fetchStep) Stage() Stage { return StageFetch }

func (s *fetchStep) Execute(ctx context.Context, state *PipelineState) error {
	batch, err := s.source.Fetch(ctx, state.Request)
	if err != nil {
		return &FetchError{Err: err}
	}
	if batch == nil {
		batch = &domain.Batch{}
	}
	state.Batch = batch
	state.Status = StatusFetched
	return nil
}

// capBatchStep rejects an empty batch and truncates it to max transactions.
// The truncated batch is also the enrichment lookup table.
type capBatchStep struct {
	max int
	log zerolog.Logger
}

func (s *capBatchStep) Stage() Stage { return StageValidate }

func (s *capBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Batch == nil || len(state.Batch.Transactions) == 0 {
		return &ValidationError{Field: "batch", Reason: "no transactions"}
	}
	if s.max > 0 && len(state.Batch.Transactions) > s.max {
		log := loggerFrom(ctx, s.log)
		log.Info().
			Int("fetched", len(state.Batch.Transactions)).
			Int("max_batch_size", s.max).
			Msg("truncating batch")
		state.Batch = &domain.Batch{
			Transactions: state.Batch.Transactions[:s.max],
			Ledger:       state.Batch.Ledger,
		}
	}
	return nil
}

type normalizeStep struct{}

func (normalizeStep) Stage() Stage { return StageNormalize }

func (normalizeStep) Execute(_ context.Context, state *PipelineState) error {
	state.Normalized = Normalize(state.Batch.Transactions)
	state.Status = StatusNormalized
	return nil
}

type classifyStep struct {
	classifier *Classifier
}

func (s *classifyStep) Stage() Stage { return StageClassify }

func (s *classifyStep) Execute(ctx context.Context, state *PipelineState) error {
	result, err := s.classifier.Classify(ctx, state.Normalized)
	if err != nil {
		return err
	}
	state.Classification = result
	state.Status = StatusClassified
	return nil
}

type enrichStep struct{}

func (enrichStep) Stage() Stage { return StageEnrich }

func (enrichStep) Execute(_ context.Context, state *PipelineState) error {
	state.Enriched = Enrich(state.Classification, state.Batch.Transactions)
	state.Status = StatusEnriched
	return nil
}

// guideStep generates receipt guides for the subscription bucket and drops any
// guide whose transaction id is not a subscription.
type guideStep struct {
	generator *GuideGenerator
	log       zerolog.Logger
}

func (s *guideStep) Stage() Stage { return StageGuide }

func (s *guideStep) Execute(ctx context.Context, state *PipelineState) error {
	subs := state.Enriched.Subscriptions
	guide, err := s.generator.Generate(ctx, subs)
	if err != nil {
		return err
	}

	guide, dropped := ValidateGuides(guide, subs)
	log := loggerFrom(ctx, s.log)
	for _, id := range dropped {
		log.Warn().Int64("transaction_id", id).Msg("dropping receipt guide for unknown subscription")
	}

	state.Guide = guide
	state.Status = StatusGuidesGenerated
	return nil
}

type composeStep struct {
	composer *Composer
}

func (s *composeStep) Stage() Stage { return StageCompose }

func (s *composeStep) Execute(ctx context.Context, state *PipelineState) error {
	draft, err := s.composer.Compose(ctx, state.Enriched, state.Guide)
	if err != nil {
		return err
	}
	state.Draft = draft
	state.Status = StatusComposed
	return nil
}
