package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/toolstash/toolstash-backend/internal/aggregate"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// AggregateJobParams configure the daily aggregation job.
type AggregateJobParams struct {
	Logger  *logger.Logger
	Service aggregate.Service
}

// NewAggregateJob builds the job that rolls up the previous UTC day.
func NewAggregateJob(params AggregateJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("aggregate service required")
	}
	return &aggregateJob{
		logg: params.Logger,
		svc:  params.Service,
		now:  time.Now,
	}, nil
}

type aggregateJob struct {
	logg *logger.Logger
	svc  aggregate.Service
	now  func() time.Time
}

func (j *aggregateJob) Name() string { return "daily-aggregate" }

func (j *aggregateJob) Run(ctx context.Context) error {
	day := j.now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)

	summary, err := j.svc.Run(ctx, day)
	if summary != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"date":                 summary.Date,
			"listings_processed":   summary.ListingsProcessed,
			"listings_failed":      summary.ListingsFailed,
			"search_rows_upserted": summary.SearchRowsUpserted,
			"ranked_categories":    summary.RankedCategories,
		})
		j.logg.Info(logCtx, "daily aggregation summary")
	}
	if err != nil {
		return fmt.Errorf("daily aggregation: %w", err)
	}
	return nil
}
