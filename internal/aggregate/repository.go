package aggregate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/toolstash/toolstash-backend/pkg/db/models"
)

// Repository persists daily rollups and reads the raw event stream they are
// built from.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DistinctListingIDs returns every listing that received at least one event
// inside [start, end).
func (r *Repository) DistinctListingIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Distinct("listing_id").
		Order("listing_id").
		Pluck("listing_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// EventsForListing loads one listing's raw events inside [start, end).
func (r *Repository) EventsForListing(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND created_at >= ? AND created_at < ?", listingID, start, end).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpsertDailyAggregate writes a listing/day rollup, overwriting every counter
// on conflict. Re-running a day therefore converges on the same row.
func (r *Repository) UpsertDailyAggregate(ctx context.Context, row *models.DailyAggregate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "listing_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"impressions", "detail_views", "outbound_clicks", "tag_clicks",
				"shares", "bookmarks", "unique_sessions",
				"referral_breakdown", "outbound_breakdown", "updated_at",
			}),
		}).
		Create(row).Error
}

// UpsertSearchQueryAggregates writes search term rollups, overwriting counts
// on conflict.
func (r *Repository) UpsertSearchQueryAggregates(ctx context.Context, rows []models.SearchQueryAggregate) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}, {Name: "query"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
		}).
		Create(&rows).Error
}

// TrailingImpressions sums daily impressions per listing over [start, end]
// in one query for the whole candidate set.
func (r *Repository) TrailingImpressions(ctx context.Context, listingIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]int64, error) {
	if len(listingIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}

	type row struct {
		ListingID uuid.UUID
		Total     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.DailyAggregate{}).
		Select("listing_id, SUM(impressions) AS total").
		Where("listing_id IN ? AND date >= ? AND date <= ?", listingIDs, start, end).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		totals[r.ListingID] = r.Total
	}
	return totals, nil
}

// SetCategoryRank stamps a rank onto an existing listing/day row. Listings
// without a rollup for the day keep no rank.
func (r *Repository) SetCategoryRank(ctx context.Context, listingID uuid.UUID, date time.Time, rank int) error {
	return r.db.WithContext(ctx).
		Model(&models.DailyAggregate{}).
		Where("listing_id = ? AND date = ?", listingID, date).
		Update("category_rank", rank).Error
}

// MetricTotals holds one listing's summed daily counters over a window.
type MetricTotals struct {
	Impressions    int64
	DetailViews    int64
	OutboundClicks int64
	TagClicks      int64
	Shares         int64
	Bookmarks      int64
}

// SumDailyMetrics is used by digest reporting: per-listing counter sums over
// daily aggregate rows with date in [start, end). Summing finished rollups
// instead of raw events keeps digests consistent with what the dashboards
// show, and keeps working after raw events age out of retention.
func (r *Repository) SumDailyMetrics(ctx context.Context, listingIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]MetricTotals, error) {
	if len(listingIDs) == 0 {
		return map[uuid.UUID]MetricTotals{}, nil
	}

	type row struct {
		ListingID      uuid.UUID
		Impressions    int64
		DetailViews    int64
		OutboundClicks int64
		TagClicks      int64
		Shares         int64
		Bookmarks      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.DailyAggregate{}).
		Select(`listing_id,
			SUM(impressions) AS impressions,
			SUM(detail_views) AS detail_views,
			SUM(outbound_clicks) AS outbound_clicks,
			SUM(tag_clicks) AS tag_clicks,
			SUM(shares) AS shares,
			SUM(bookmarks) AS bookmarks`).
		Where("listing_id IN ? AND date >= ? AND date < ?", listingIDs, start, end).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]MetricTotals, len(rows))
	for _, r := range rows {
		totals[r.ListingID] = MetricTotals{
			Impressions:    r.Impressions,
			DetailViews:    r.DetailViews,
			OutboundClicks: r.OutboundClicks,
			TagClicks:      r.TagClicks,
			Shares:         r.Shares,
			Bookmarks:      r.Bookmarks,
		}
	}
	return totals, nil
}
