package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/toolstash/toolstash-backend/pkg/logger"
	"gorm.io/gorm"
)

// Raw events are only needed until their day has been aggregated, so they
// keep a shorter retention than page views.
const eventRetentionDays = 90

// EventCleanupJobParams configure the raw event retention job.
type EventCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository eventCleanupRepo
	Retention  int
}

type eventCleanupRepo interface {
	DeleteEventsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewEventCleanupJob builds the job that purges raw events past retention.
func NewEventCleanupJob(params EventCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("ingest repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = eventRetentionDays
	}
	return &eventCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type eventCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      eventCleanupRepo
	retention int
	now       func() time.Time
}

func (j *eventCleanupJob) Name() string { return "event-cleanup" }

func (j *eventCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteEventsBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("event cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "event cleanup complete")
	return nil
}
