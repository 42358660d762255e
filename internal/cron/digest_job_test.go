package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toolstash/toolstash-backend/internal/digest"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

type fakeDigestService struct {
	lastNow time.Time
	summary *digest.Summary
	err     error
}

func (f *fakeDigestService) Run(_ context.Context, now time.Time) (*digest.Summary, error) {
	f.lastNow = now
	return f.summary, f.err
}

func TestDigestJobPassesCurrentTime(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	svc := &fakeDigestService{summary: &digest.Summary{UsersProcessed: 3}}

	jobIface, err := NewDigestJob(DigestJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("NewDigestJob: %v", err)
	}
	job := jobIface.(*digestJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !svc.lastNow.Equal(now) {
		t.Fatalf("expected now %s, got %s", now, svc.lastNow)
	}
}

func TestDigestJobPropagatesErrors(t *testing.T) {
	svc := &fakeDigestService{err: errors.New("boom")}

	jobIface, err := NewDigestJob(DigestJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("NewDigestJob: %v", err)
	}

	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
