package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolstash/toolstash-backend/pkg/db/models"
)

// Repository persists the raw collection tables: page_views and
// analytics_events.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertPageView stores a new page view row.
func (r *Repository) InsertPageView(ctx context.Context, view *models.PageView) (*models.PageView, error) {
	if err := r.db.WithContext(ctx).Create(view).Error; err != nil {
		return nil, err
	}
	return view, nil
}

// UpdatePageViewDuration patches the dwell time of an existing page view.
// Returns the number of rows touched; a stale beacon for a purged row is 0.
func (r *Repository) UpdatePageViewDuration(ctx context.Context, id uuid.UUID, seconds int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PageView{}).
		Where("id = ?", id).
		Update("duration_seconds", seconds)
	return res.RowsAffected, res.Error
}

// InsertEvents bulk-inserts a validated batch in a single statement so the
// batch lands atomically.
func (r *Repository) InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

// DeletePageViewsBefore purges page views older than cutoff.
func (r *Repository) DeletePageViewsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Where("viewed_at < ?", cutoff).
		Delete(&models.PageView{})
	return res.RowsAffected, res.Error
}

// DeleteEventsBefore purges raw analytics events older than cutoff.
func (r *Repository) DeleteEventsBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AnalyticsEvent{})
	return res.RowsAffected, res.Error
}
