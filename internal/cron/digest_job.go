package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/toolstash/toolstash-backend/internal/digest"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// DigestJobParams configure the weekly digest job.
type DigestJobParams struct {
	Logger  *logger.Logger
	Service digest.Service
}

// NewDigestJob builds the job that publishes weekly digests. The service
// matches recipients against today's weekday, so running this daily sends
// each user their digest on their preferred day.
func NewDigestJob(params DigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("digest service required")
	}
	return &digestJob{
		logg: params.Logger,
		svc:  params.Service,
		now:  time.Now,
	}, nil
}

type digestJob struct {
	logg *logger.Logger
	svc  digest.Service
	now  func() time.Time
}

func (j *digestJob) Name() string { return "weekly-digest" }

func (j *digestJob) Run(ctx context.Context) error {
	summary, err := j.svc.Run(ctx, j.now())
	if summary != nil {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"users_processed": summary.UsersProcessed,
			"users_skipped":   summary.UsersSkipped,
			"users_failed":    summary.UsersFailed,
		})
		j.logg.Info(logCtx, "weekly digest summary")
	}
	if err != nil {
		return fmt.Errorf("weekly digest: %w", err)
	}
	return nil
}
