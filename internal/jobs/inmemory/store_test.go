package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := &jobs.NotificationJob{JobID: "j1", Status: jobs.JobStatusCompleted, Draft: &domain.EmailDraft{Subject: "a"}}
	require.NoError(t, s.SaveJob(ctx, job))

	// Later changes by the caller do not leak into the store.
	job.Status = jobs.JobStatusFailed
	job.Draft.Subject = "changed"

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusCompleted, got.Status)
	assert.Equal(t, "a", got.Draft.Subject)
}

func TestStore_Errors(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.SaveJob(context.Background(), &jobs.NotificationJob{}))

	_, err := s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

	for i, j := range []jobs.NotificationJob{
		{JobID: "a", Customer: "kari@example.com", Status: jobs.JobStatusCompleted},
		{JobID: "b", Customer: "ola@example.com", Status: jobs.JobStatusFailed},
		{JobID: "c", Customer: "kari@example.com", Status: jobs.JobStatusPending},
	} {
		j := j
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, &j))
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by customer", jobs.JobFilter{Customer: "kari@example.com"}, []string{"c", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"b"}},
		{"limit", jobs.JobFilter{Limit: 1}, []string{"c"}},
		{"offset", jobs.JobFilter{Offset: 2}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, j := range got {
				ids = append(ids, j.JobID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
