// Package jobs defines asynchronous notification jobs: one job runs the
// pipeline for one customer and records the resulting email draft.
package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the draft was composed.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the pipeline failed. Failed jobs are not retried.
	JobStatusFailed JobStatus = "failed"
)

// NotificationJob asks for a missing-receipts email for one customer.
type NotificationJob struct {
	JobID string `json:"job_id"`

	// Token is the customer's ledger token. It is never serialized.
	Token string `json:"-"`

	// Customer is an optional human-readable label, e.g. an email address.
	Customer string `json:"customer,omitempty"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	Status JobStatus `json:"status"`

	// RunID is the pipeline run that served this job.
	RunID string `json:"run_id,omitempty"`

	Draft         *domain.EmailDraft `json:"draft,omitempty"`
	Subscriptions int                `json:"subscriptions"`
	Physical      int                `json:"physical"`

	// OutboxURL links to the published draft when an outbox is configured.
	OutboxURL string `json:"outbox_url,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error and FailedStage describe why the job failed.
	Error       string `json:"error,omitempty"`
	FailedStage string `json:"failed_stage,omitempty"`
}

// Publisher enqueues jobs.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	PublishNotification(ctx context.Context, job *NotificationJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start begins consuming jobs; handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. It fills in the job's result fields and
// returns an error when the job failed.
type JobHandler func(ctx context.Context, job *NotificationJob) error

// JobStore stores job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *NotificationJob) error
	GetJob(ctx context.Context, jobID string) (*NotificationJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*NotificationJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Customer string
	Status   JobStatus
	Limit    int
	Offset   int
}
