package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/toolstash/toolstash-backend/pkg/enums"
)

// AnalyticsEvent is the append-only raw event stream. Rows are never updated;
// retention cleanup is the only delete path.
type AnalyticsEvent struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventName       enums.AnalyticsEventName `gorm:"column:event_name;type:text;not null;index:idx_analytics_events_listing_created,priority:3"`
	ListingID       uuid.UUID                `gorm:"column:listing_id;type:uuid;not null;index:idx_analytics_events_listing_created,priority:1"`
	SessionID       string                   `gorm:"column:session_id;type:text;not null"`
	DeviceCategory  enums.DeviceCategory     `gorm:"column:device_category;type:text;not null"`
	Surface         *string                  `gorm:"column:surface;type:text"`
	Position        *int                     `gorm:"column:position"`
	DestinationType *string                  `gorm:"column:destination_type;type:text"`
	SearchQuery     *string                  `gorm:"column:search_query;type:text"`
	Referrer        *string                  `gorm:"column:referrer;type:text"`
	CreatedAt       time.Time                `gorm:"column:created_at;type:timestamptz;not null;index:idx_analytics_events_listing_created,priority:2;autoCreateTime"`
}

func (*AnalyticsEvent) TableName() string {
	return "analytics_events"
}
