package app

import (
	"context"

	"github.com/dvloznov/missing-receipts/internal/config"
	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/notionoutbox"
	"github.com/dvloznov/missing-receipts/internal/pipeline"
	"github.com/rs/zerolog"
)

// Runner runs the full pipeline for one customer.
type Runner interface {
	Run(ctx context.Context, req ledger.FetchRequest) (*pipeline.Result, error)
}

// DraftPublisher hands a composed draft to reviewers and returns where it
// can be found.
type DraftPublisher interface {
	PublishDraft(ctx context.Context, job *jobs.NotificationJob) (string, error)
}

// NewOutbox returns the Notion outbox, or nil when it is not configured.
func NewOutbox(cfg config.NotionConfig, log zerolog.Logger) DraftPublisher {
	if !cfg.Enabled() {
		return nil
	}
	return notionoutbox.New(notionoutbox.NewNotionClient(cfg.Token), cfg.DatabaseID, log)
}

// NotificationHandler returns the job handler that runs the pipeline for a
// notification job and records the draft on it. outbox may be nil. A failure
// to publish the draft is logged and does not fail the job.
func NotificationHandler(svc Runner, outbox DraftPublisher, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.NotificationJob) error {
		jobLog := log.With().Str("job_id", job.JobID).Str("customer", job.Customer).Logger()
		jobLog.Info().Msg("Processing notification job")

		res, err := svc.Run(ctx, ledger.FetchRequest{
			Token: job.Token,
			From:  job.From,
			To:    job.To,
		})
		if err != nil {
			job.FailedStage = string(pipeline.FailedStage(err))
			jobLog.Error().Err(err).Str("stage", job.FailedStage).Msg("Notification job failed")
			return err
		}

		job.RunID = res.RunID
		job.Draft = res.Draft
		job.Subscriptions = len(res.Enriched.Subscriptions)
		job.Physical = len(res.Enriched.Physical)

		if outbox != nil {
			url, err := outbox.PublishDraft(ctx, job)
			if err != nil {
				jobLog.Warn().Err(err).Msg("Failed to publish draft")
			} else {
				job.OutboxURL = url
			}
		}

		jobLog.Info().
			Str("run_id", job.RunID).
			Int("subscriptions", job.Subscriptions).
			Int("physical", job.Physical).
			Msg("Notification job completed")
		return nil
	}
}
