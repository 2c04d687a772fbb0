package cron

import (
	"context"
	"testing"
	"time"

	"github.com/Gravender/boardgames-backend/pkg/logger"
)

type fakeOutboxRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestOutboxRetentionJob_deletesWithCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{deleted: 12}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-outboxRetentionDays * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("unexpected cutoff: got %s want %s", repo.cutoff, want)
	}
}

func TestOutboxRetentionJob_name(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeOutboxRetentionRepo{},
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if job.Name() != "outbox-retention" {
		t.Fatalf("unexpected job name: %s", job.Name())
	}
}
