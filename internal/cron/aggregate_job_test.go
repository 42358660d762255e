package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toolstash/toolstash-backend/internal/aggregate"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

type fakeAggregateService struct {
	lastDay time.Time
	summary *aggregate.Summary
	err     error
}

func (f *fakeAggregateService) Run(_ context.Context, day time.Time) (*aggregate.Summary, error) {
	f.lastDay = day
	return f.summary, f.err
}

func TestAggregateJobRunsPreviousUTCDay(t *testing.T) {
	now := time.Date(2025, 6, 2, 3, 15, 0, 0, time.UTC)
	svc := &fakeAggregateService{summary: &aggregate.Summary{Date: "2025-06-01"}}

	jobIface, err := NewAggregateJob(AggregateJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("NewAggregateJob: %v", err)
	}
	job := jobIface.(*aggregateJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !svc.lastDay.Equal(want) {
		t.Fatalf("expected day %s, got %s", want, svc.lastDay)
	}
}

func TestAggregateJobPropagatesErrors(t *testing.T) {
	svc := &fakeAggregateService{err: errors.New("boom")}

	jobIface, err := NewAggregateJob(AggregateJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("NewAggregateJob: %v", err)
	}

	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
