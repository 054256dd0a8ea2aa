// Package notionoutbox publishes composed email drafts to a Notion database so
// an accountant can review them before they are sent.
package notionoutbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// Outbox writes one Notion page per notification job.
type Outbox struct {
	client     NotionService
	databaseID string
	log        zerolog.Logger
}

// New creates an Outbox for the drafts database databaseID.
func New(client NotionService, databaseID string, log zerolog.Logger) *Outbox {
	return &Outbox{client: client, databaseID: databaseID, log: log}
}

// PublishDraft creates the review page for job and returns its URL. A job that
// already has a page is not published twice.
func (o *Outbox) PublishDraft(ctx context.Context, job *jobs.NotificationJob) (string, error) {
	if job.Draft == nil {
		return "", errors.New("notionoutbox: job has no draft")
	}

	existing, err := o.findPage(ctx, job.JobID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		o.log.Info().Str("job_id", job.JobID).Str("page_id", string(existing.ID)).Msg("draft already published")
		return existing.URL, nil
	}

	page, err := o.client.CreatePage(ctx, o.databaseID, JobToNotionProperties(job), BodyToBlocks(job.Draft.Body))
	if err != nil {
		return "", fmt.Errorf("notionoutbox: publish job %s: %w", job.JobID, err)
	}

	o.log.Info().Str("job_id", job.JobID).Str("page_id", string(page.ID)).Msg("draft published to Notion")
	return page.URL, nil
}

func (o *Outbox) findPage(ctx context.Context, jobID string) (*notionapi.Page, error) {
	resp, err := o.client.QueryDatabase(ctx, o.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: propJobID,
			RichText: &notionapi.TextFilterCondition{Equals: jobID},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("notionoutbox: look up job %s: %w", jobID, err)
	}
	for i := range resp.Results {
		if extractJobID(resp.Results[i]) == jobID {
			return &resp.Results[i], nil
		}
	}
	return nil, nil
}
