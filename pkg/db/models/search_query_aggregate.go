package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchQueryAggregate rolls up search terms that surfaced a listing, keyed by
// (listing_id, date, query) with overwrite-on-conflict semantics.
type SearchQueryAggregate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_search_query_aggregates_key,priority:1"`
	Date      time.Time `gorm:"column:date;type:date;not null;uniqueIndex:uq_search_query_aggregates_key,priority:2"`
	Query     string    `gorm:"column:query;type:text;not null;uniqueIndex:uq_search_query_aggregates_key,priority:3"`
	Count     int64     `gorm:"column:count;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (*SearchQueryAggregate) TableName() string {
	return "search_query_aggregates"
}
