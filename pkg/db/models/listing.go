package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/toolstash/toolstash-backend/pkg/enums"
)

// Listing mirrors the catalog service's listings table. This service only
// reads it: slug resolution at ingest time, eligibility for ranking, and
// ownership for digests.
type Listing struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID    uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	Slug       string              `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name       string              `gorm:"column:name;type:text;not null"`
	Category   string              `gorm:"column:category;type:text;not null;index"`
	Tags       pq.StringArray      `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	WebsiteURL *string             `gorm:"column:website_url;type:text"`
	Status     enums.ListingStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	IsActive   bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time           `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (*Listing) TableName() string {
	return "listings"
}

// Eligible reports whether the listing may appear in public rankings.
func (l Listing) Eligible() bool {
	return l.IsActive && l.Status == enums.ListingStatusApproved
}
