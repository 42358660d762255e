package digest

import (
	"time"

	"github.com/google/uuid"
)

// MetricWindow holds one listing's totals for a single comparison window.
type MetricWindow struct {
	Impressions    int64 `json:"impressions"`
	DetailViews    int64 `json:"detail_views"`
	OutboundClicks int64 `json:"outbound_clicks"`
	TagClicks      int64 `json:"tag_clicks"`
	Shares         int64 `json:"shares"`
	Bookmarks      int64 `json:"bookmarks"`
}

// ListingDigest compares a listing's current window against the previous one
// of the same length.
type ListingDigest struct {
	ListingID     uuid.UUID    `json:"listing_id"`
	Slug          string       `json:"slug"`
	Name          string       `json:"name"`
	ThisWeek      MetricWindow `json:"this_week"`
	PreviousWeek  MetricWindow `json:"previous_week"`
	BestPerformer bool         `json:"best_performer"`
}

// Payload is the message published per recipient. Delivery (templating,
// sending) is owned by the notification consumer downstream.
type Payload struct {
	UserID      uuid.UUID       `json:"user_id"`
	Email       string          `json:"email"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Listings    []ListingDigest `json:"listings"`
}

// Summary reports what one digest run did.
type Summary struct {
	UsersProcessed int `json:"users_processed"`
	UsersSkipped   int `json:"users_skipped"`
	UsersFailed    int `json:"users_failed"`
}
