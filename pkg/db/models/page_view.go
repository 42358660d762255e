package models

import (
	"time"

	"github.com/google/uuid"
)

// PageView is one row per page load. The only mutation it ever sees is the
// duration patch written when the page is exited.
type PageView struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Path            string     `gorm:"column:path;type:text;not null"`
	Referrer        *string    `gorm:"column:referrer;type:text"`
	VisitorID       string     `gorm:"column:visitor_id;type:text;not null;index"`
	UserID          *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Category        *string    `gorm:"column:category;type:text"`
	ListingID       *uuid.UUID `gorm:"column:listing_id;type:uuid"`
	DurationSeconds int        `gorm:"column:duration_seconds;not null;default:0"`
	ViewedAt        time.Time  `gorm:"column:viewed_at;type:timestamptz;not null;index;autoCreateTime"`
}

func (*PageView) TableName() string {
	return "page_views"
}
