package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForStatus(t *testing.T, store *Store, id string, want jobs.JobStatus) *jobs.NotificationJob {
	t.Helper()
	var job *jobs.NotificationJob
	require.Eventually(t, func() bool {
		var err error
		job, err = store.GetJob(context.Background(), id)
		return err == nil && job.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 2, store)
	defer q.Close()

	require.NoError(t, q.Start(context.Background(), func(_ context.Context, job *jobs.NotificationJob) error {
		job.RunID = "run-1"
		job.Draft = &domain.EmailDraft{Subject: "Manglende kvitteringer", Body: "Hei"}
		job.Physical = 1
		return nil
	}))

	job := &jobs.NotificationJob{Token: "tok", Customer: "kunde@example.com"}
	require.NoError(t, q.PublishNotification(context.Background(), job))
	require.NotEmpty(t, job.JobID)
	assert.Equal(t, jobs.JobStatusPending, job.Status)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, "run-1", done.RunID)
	require.NotNil(t, done.Draft)
	assert.Equal(t, "Manglende kvitteringer", done.Draft.Subject)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)
	defer q.Close()

	var calls int32
	require.NoError(t, q.Start(context.Background(), func(context.Context, *jobs.NotificationJob) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("classify: model call failed")
	}))

	job := &jobs.NotificationJob{Token: "tok"}
	require.NoError(t, q.PublishNotification(context.Background(), job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, "classify: model call failed", failed.Error)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, 1, NewStore())
	require.NoError(t, q.Stop(context.Background()))

	err := q.PublishNotification(context.Background(), &jobs.NotificationJob{})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), nil), ErrQueueClosed)

	// Stopping twice is fine.
	assert.NoError(t, q.Stop(context.Background()))
}

func TestQueue_PublishRespectsContext(t *testing.T) {
	q := NewQueue(0, 1, nil)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// No consumer and no buffer, so the send blocks until the deadline.
	err := q.PublishNotification(ctx, &jobs.NotificationJob{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_StopFailsBufferedJobs(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)

	// Not started, so every published job stays buffered.
	var ids []string
	for i := 0; i < 3; i++ {
		job := &jobs.NotificationJob{Token: "tok"}
		require.NoError(t, q.PublishNotification(context.Background(), job))
		ids = append(ids, job.JobID)
	}

	require.NoError(t, q.Stop(context.Background()))

	for _, id := range ids {
		job, err := store.GetJob(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, jobs.JobStatusFailed, job.Status)
		assert.Equal(t, errQueueStopped.Error(), job.Error)
		assert.NotNil(t, job.CompletedAt)
	}

	pending, err := store.ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}
