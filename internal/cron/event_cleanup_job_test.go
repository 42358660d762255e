package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toolstash/toolstash-backend/pkg/logger"
	"gorm.io/gorm"
)

func TestEventCleanupJobUsesShorterRetention(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventCleanupRepo{deletedRows: 100}
	job := newEventCleanupJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-eventRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestEventCleanupJobHonorsRetentionOverride(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &fakeEventCleanupRepo{}
	jobIface, err := NewEventCleanupJob(EventCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         cleanupFakeTxRunner{},
		Repository: repo,
		Retention:  30,
	})
	if err != nil {
		t.Fatalf("NewEventCleanupJob: %v", err)
	}
	job := jobIface.(*eventCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-30 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestEventCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeEventCleanupRepo{err: errors.New("boom")}
	job := newEventCleanupJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newEventCleanupJob(t *testing.T, repo *fakeEventCleanupRepo) *eventCleanupJob {
	t.Helper()
	jobIface, err := NewEventCleanupJob(EventCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         cleanupFakeTxRunner{},
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewEventCleanupJob: %v", err)
	}
	job, ok := jobIface.(*eventCleanupJob)
	if !ok {
		t.Fatalf("expected eventCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeEventCleanupRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
}

func (f *fakeEventCleanupRepo) DeleteEventsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}
