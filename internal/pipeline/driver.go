// Package pipeline turns a customer's bank transactions into a
// missing-receipts email: normalize, classify with the language model, enrich,
// generate receipt guides for subscriptions and compose the email.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/missing-receipts/internal/config"
	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/dvloznov/missing-receipts/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options is the caller policy applied to every invocation.
type Options struct {
	MaxBatchSize   int
	Timeout        time.Duration // 0 means no deadline
	ClassifyTokens int
	GuideTokens    int
	EmailTokens    int

	// Defaults fills account and date fields a request leaves empty.
	Defaults ledger.FetchRequest
}

// OptionsFromConfig maps the service configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxBatchSize:   cfg.Pipeline.MaxBatchSize,
		Timeout:        cfg.Pipeline.Timeout,
		ClassifyTokens: cfg.LLM.ClassifyTokens,
		GuideTokens:    cfg.LLM.GuideTokens,
		EmailTokens:    cfg.LLM.EmailTokens,
		Defaults: ledger.FetchRequest{
			From:          cfg.Ledger.From,
			To:            cfg.Ledger.To,
			Account:       cfg.Ledger.Account,
			BankAccountID: cfg.Ledger.BankAccountID,
		},
	}
}

// Result is what an invocation produced. Guide and Draft are set only by the
// entry points that reach those stages.
type Result struct {
	RunID            string                      `json:"runId"`
	Status           Status                      `json:"status"`
	TransactionCount int                         `json:"transactionCount"`
	Classification   domain.ClassificationResult `json:"classification"`
	Enriched         domain.EnrichedResult       `json:"enriched"`
	Guide            *domain.ReceiptGuideResult  `json:"guide,omitempty"`
	Draft            *domain.EmailDraft          `json:"draft,omitempty"`
}

// Service sequences the pipeline stages. The language-model client and the
// transaction source are injected and reused across invocations; every
// invocation owns its own PipelineState.
type Service struct {
	opts Options
	log  zerolog.Logger

	full     *Pipeline
	batch    *Pipeline
	analysis *Pipeline
	guides   *Pipeline
}

// NewService wires the stages around client and source.
func NewService(client llm.Client, source ledger.Source, opts Options, log zerolog.Logger) *Service {
	classifier := NewClassifier(client, opts.ClassifyTokens, log)
	generator := NewGuideGenerator(client, opts.GuideTokens, log)
	composer := NewComposer(client, opts.EmailTokens, log)

	var (
		validate = validateTokenStep{}
		fetch    = &fetchStep{source: source}
		capBatch = &capBatchStep{max: opts.MaxBatchSize, log: log}
		classify = &classifyStep{classifier: classifier}
		guide    = &guideStep{generator: generator, log: log}
		compose  = &composeStep{composer: composer}
	)

	return &Service{
		opts:     opts,
		log:      log,
		full:     NewPipeline(validate, fetch, capBatch, normalizeStep{}, classify, enrichStep{}, guide, compose),
		batch:    NewPipeline(validate, capBatch, normalizeStep{}, classify, enrichStep{}, guide, compose),
		analysis: NewPipeline(validate, fetch, capBatch, normalizeStep{}, classify, enrichStep{}),
		guides:   NewPipeline(validate, fetch, capBatch, normalizeStep{}, classify, enrichStep{}, guide),
	}
}

// Run fetches the customer's transactions and returns the composed email.
func (s *Service) Run(ctx context.Context, req ledger.FetchRequest) (*Result, error) {
	state := &PipelineState{Request: s.withDefaults(req), Status: StatusNew}
	return s.execute(ctx, "run", s.full, state)
}

// RunBatch runs the pipeline on transactions the caller already holds.
func (s *Service) RunBatch(ctx context.Context, token string, txs []domain.Transaction) (*Result, error) {
	state := &PipelineState{
		Request: ledger.FetchRequest{Token: token},
		Status:  StatusFetched,
		Batch:   &domain.Batch{Transactions: txs},
	}
	return s.execute(ctx, "run_batch", s.batch, state)
}

// Analyze stops after enrichment and returns the two buckets. No email is
// composed.
func (s *Service) Analyze(ctx context.Context, req ledger.FetchRequest) (*Result, error) {
	state := &PipelineState{Request: s.withDefaults(req), Status: StatusNew}
	return s.execute(ctx, "analyze", s.analysis, state)
}

// Guides stops after receipt-guide generation.
func (s *Service) Guides(ctx context.Context, req ledger.FetchRequest) (*Result, error) {
	state := &PipelineState{Request: s.withDefaults(req), Status: StatusNew}
	return s.execute(ctx, "guides", s.guides, state)
}

func (s *Service) withDefaults(req ledger.FetchRequest) ledger.FetchRequest {
	d := s.opts.Defaults
	if req.From == "" {
		req.From = d.From
	}
	if req.To == "" {
		req.To = d.To
	}
	if req.Account == 0 {
		req.Account = d.Account
	}
	if req.BankAccountID == 0 {
		req.BankAccountID = d.BankAccountID
	}
	return req
}

func (s *Service) execute(ctx context.Context, mode string, p *Pipeline, state *PipelineState) (*Result, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	state.RunID = uuid.NewString()
	log := s.log.With().Str("run_id", state.RunID).Str("mode", mode).Logger()
	ctx = logger.WithContext(ctx, log)

	start := time.Now()
	log.Info().Msg("pipeline started")

	if err := p.Execute(ctx, state); err != nil {
		log.Error().
			Err(err).
			Str("stage", string(state.FailedStage)).
			Dur("duration", time.Since(start)).
			Msg("pipeline failed")
		return nil, err
	}
	state.Status = StatusDone

	res := &Result{
		RunID:          state.RunID,
		Status:         state.Status,
		Classification: state.Classification,
		Enriched:       state.Enriched,
	}
	if state.Batch != nil {
		res.TransactionCount = len(state.Batch.Transactions)
	}
	if p == s.full || p == s.batch || p == s.guides {
		guide := state.Guide
		res.Guide = &guide
	}
	if p == s.full || p == s.batch {
		draft := state.Draft
		res.Draft = &draft
	}

	log.Info().
		Int("transactions", res.TransactionCount).
		Int("subscriptions", len(state.Enriched.Subscriptions)).
		Int("physical", len(state.Enriched.Physical)).
		Int("guides", len(state.Guide.Guides)).
		Dur("duration", time.Since(start)).
		Msg("pipeline finished")
	return res, nil
}
