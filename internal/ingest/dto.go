package ingest

import "github.com/google/uuid"

// CollectInput is the payload for a page view collection call. Identity is
// generated client-side (cookie-backed visitor and session IDs), so the
// visitor ID arrives in the body and a missing one is a validation error.
type CollectInput struct {
	Path      string     `json:"path" validate:"required,max=2048"`
	Referrer  *string    `json:"referrer,omitempty" validate:"omitempty,max=2048"`
	VisitorID string     `json:"visitor_id" validate:"required,max=64"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
}

// CollectResult returns the identifier the client needs for the later
// duration beacon.
type CollectResult struct {
	PageViewID uuid.UUID `json:"page_view_id"`
}

// DurationInput is the exit beacon that patches a page view's dwell time.
type DurationInput struct {
	PageViewID      uuid.UUID `json:"page_view_id" validate:"required"`
	DurationSeconds int       `json:"duration_seconds"`
}

// EventInput is one interaction inside a batch.
type EventInput struct {
	EventName       string  `json:"event_name" validate:"required"`
	ListingID       string  `json:"listing_id" validate:"required,uuid4|uuid"`
	Surface         *string `json:"surface,omitempty" validate:"omitempty,max=64"`
	Position        *int    `json:"position,omitempty" validate:"omitempty,gte=0"`
	DestinationType *string `json:"destination_type,omitempty" validate:"omitempty,max=32"`
	SearchQuery     *string `json:"search_query,omitempty" validate:"omitempty,max=256"`
	Referrer        *string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
}

// EventBatchInput is the batched event payload shipped by the tracker client.
type EventBatchInput struct {
	SessionID      string       `json:"session_id" validate:"required,max=64"`
	DeviceCategory string       `json:"device_category,omitempty"`
	Events         []EventInput `json:"events" validate:"required,min=1,dive"`
}

// EventBatchResult reports how many events were stored.
type EventBatchResult struct {
	Count int `json:"count"`
}
