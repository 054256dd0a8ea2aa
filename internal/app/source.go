// Package app builds the service's collaborators from configuration. It is
// shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/missing-receipts/internal/config"
	"github.com/dvloznov/missing-receipts/internal/gcsuploader"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/ledger/catacloud"
	"github.com/dvloznov/missing-receipts/internal/ledger/mock"
	"github.com/dvloznov/missing-receipts/internal/ledger/warehouse"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/dvloznov/missing-receipts/internal/pipeline"
	"github.com/rs/zerolog"
)

// NewSource returns the transaction source selected by cfg.Source and a
// function that releases it.
func NewSource(ctx context.Context, cfg config.LedgerConfig, storage gcsuploader.StorageService) (ledger.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case "", "mock":
		return mock.New(cfg.MockPath, storage), noop, nil
	case "catacloud":
		return catacloud.NewClient(cfg.Endpoint), noop, nil
	case "warehouse":
		src, err := warehouse.New(ctx, cfg.BQProject, cfg.BQDataset, cfg.BQTable)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("app: unknown ledger source %q", cfg.Source)
	}
}

// NewService builds the language-model client, the transaction source and the
// pipeline service. The returned function releases the source.
func NewService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pipeline.Service, func() error, error) {
	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("app: creating llm client: %w", err)
	}

	source, closeSource, err := NewSource(ctx, cfg.Ledger, gcsuploader.NewGCSStorageService())
	if err != nil {
		return nil, nil, fmt.Errorf("app: creating transaction source: %w", err)
	}

	log.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("llm_model", cfg.LLM.Model).
		Str("ledger_source", cfg.Ledger.Source).
		Int("max_batch_size", cfg.Pipeline.MaxBatchSize).
		Msg("pipeline configured")

	return pipeline.NewService(client, source, pipeline.OptionsFromConfig(cfg), log), closeSource, nil
}
