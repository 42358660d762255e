package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/toolstash/toolstash-backend/pkg/logger"
	"gorm.io/gorm"
)

const pageViewRetentionDays = 180

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PageViewCleanupJobParams configure the page view retention job.
type PageViewCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository pageViewCleanupRepo
	Retention  int
}

type pageViewCleanupRepo interface {
	DeletePageViewsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewPageViewCleanupJob builds the job that purges page views past retention.
func NewPageViewCleanupJob(params PageViewCleanupJobParams) (Job, error) {
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
		retention = pageViewRetentionDays
	}
	return &pageViewCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type pageViewCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      pageViewCleanupRepo
	retention int
	now       func() time.Time
}

func (j *pageViewCleanupJob) Name() string { return "page-view-cleanup" }

func (j *pageViewCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePageViewsBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("page view cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "page view cleanup complete")
	return nil
}
