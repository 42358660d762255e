package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/toolstash/toolstash-backend/pkg/db/types"
)

// DailyAggregate is the per-listing daily rollup, keyed naturally by
// (listing_id, date). Aggregation always overwrites whole rows, so re-running
// a day is idempotent.
type DailyAggregate struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID         uuid.UUID        `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_daily_aggregates_listing_date,priority:1"`
	Date              time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:uq_daily_aggregates_listing_date,priority:2"`
	Impressions       int64            `gorm:"column:impressions;not null;default:0"`
	DetailViews       int64            `gorm:"column:detail_views;not null;default:0"`
	OutboundClicks    int64            `gorm:"column:outbound_clicks;not null;default:0"`
	TagClicks         int64            `gorm:"column:tag_clicks;not null;default:0"`
	Shares            int64            `gorm:"column:shares;not null;default:0"`
	Bookmarks         int64            `gorm:"column:bookmarks;not null;default:0"`
	UniqueSessions    int64            `gorm:"column:unique_sessions;not null;default:0"`
	ReferralBreakdown dbtypes.CountMap `gorm:"column:referral_breakdown;type:jsonb;not null;default:'{}'"`
	OutboundBreakdown dbtypes.CountMap `gorm:"column:outbound_breakdown;type:jsonb;not null;default:'{}'"`
	CategoryRank      *int             `gorm:"column:category_rank"`
	CreatedAt         time.Time        `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (*DailyAggregate) TableName() string {
	return "daily_aggregates"
}
