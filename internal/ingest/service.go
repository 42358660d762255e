// Package ingest implements the write path of the analytics pipeline: page
// view collection with catalog attribution, duration beacons, and batched
// interaction events.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/toolstash/toolstash-backend/pkg/config"
	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/enums"
	pkgerrors "github.com/toolstash/toolstash-backend/pkg/errors"
	"github.com/toolstash/toolstash-backend/pkg/metrics"
)

// Service exposes the analytics collection operations.
type Service interface {
	CollectPageView(ctx context.Context, input CollectInput) (*CollectResult, error)
	RecordDuration(ctx context.Context, input DurationInput) error
	RecordEventBatch(ctx context.Context, input EventBatchInput) (*EventBatchResult, error)
}

type pageViewStore interface {
	InsertPageView(ctx context.Context, view *models.PageView) (*models.PageView, error)
	UpdatePageViewDuration(ctx context.Context, id uuid.UUID, seconds int) (int64, error)
	InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error
}

type listingResolver interface {
	FindListingBySlug(ctx context.Context, slug string) (*models.Listing, error)
}

type service struct {
	repo    pageViewStore
	catalog listingResolver
	cfg     config.IngestConfig
	metrics *metrics.IngestMetrics
}

// NewService constructs the ingest service.
func NewService(repo pageViewStore, catalog listingResolver, cfg config.IngestConfig, m *metrics.IngestMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ingest repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalog, cfg: cfg, metrics: m}, nil
}

// CollectPageView records a page load, attributing it to a listing or
// category when the path resolves to one. An unknown slug is not an error:
// the view is stored unattributed.
func (s *service) CollectPageView(ctx context.Context, input CollectInput) (*CollectResult, error) {
	view := &models.PageView{
		Path:      input.Path,
		Referrer:  input.Referrer,
		VisitorID: input.VisitorID,
		UserID:    input.UserID,
	}

	kind, slug := ClassifyPath(input.Path)
	switch kind {
	case PageKindListing:
		listing, err := s.catalog.FindListingBySlug(ctx, slug)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving listing slug")
		}
		if listing != nil {
			view.ListingID = &listing.ID
			category := listing.Category
			view.Category = &category
		}
	case PageKindCategory:
		category := slug
		view.Category = &category
	}

	stored, err := s.repo.InsertPageView(ctx, view)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing page view")
	}

	s.metrics.IncPageView()
	return &CollectResult{PageViewID: stored.ID}, nil
}

// RecordDuration patches dwell time for an earlier page view, clamping the
// reported seconds into [0, max]. A beacon for a row that no longer exists is
// silently dropped; exit beacons are fire-and-forget on the client side.
func (s *service) RecordDuration(ctx context.Context, input DurationInput) error {
	seconds := input.DurationSeconds
	if seconds < 0 {
		seconds = 0
	}
	if max := s.cfg.MaxDurationSecs; max > 0 && seconds > max {
		seconds = max
	}

	if _, err := s.repo.UpdatePageViewDuration(ctx, input.PageViewID, seconds); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating page view duration")
	}
	return nil
}

// RecordEventBatch validates and stores a tracker batch. The batch is
// all-or-nothing: one invalid event rejects every event in it, so the client
// never has to reason about partial writes.
func (s *service) RecordEventBatch(ctx context.Context, input EventBatchInput) (*EventBatchResult, error) {
	if len(input.Events) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "events batch is empty")
	}
	if max := s.cfg.MaxBatchSize; max > 0 && len(input.Events) > max {
		s.metrics.IncBatchRejected()
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("batch of %d events exceeds the maximum of %d", len(input.Events), max))
	}

	device := enums.DeviceCategoryDesktop
	if input.DeviceCategory != "" {
		parsed, err := enums.ParseDeviceCategory(input.DeviceCategory)
		if err != nil {
			s.metrics.IncBatchRejected()
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid device category")
		}
		device = parsed
	}

	rows := make([]models.AnalyticsEvent, 0, len(input.Events))
	for i, e := range input.Events {
		row, err := s.buildEventRow(input.SessionID, device, e)
		if err != nil {
			s.metrics.IncBatchRejected()
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("event %d is invalid", i))
		}
		rows = append(rows, row)
	}

	if err := s.repo.InsertEvents(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing event batch")
	}

	s.metrics.AddEventsRecorded(len(rows))
	return &EventBatchResult{Count: len(rows)}, nil
}

func (s *service) buildEventRow(sessionID string, device enums.DeviceCategory, e EventInput) (models.AnalyticsEvent, error) {
	name, err := enums.ParseAnalyticsEventName(e.EventName)
	if err != nil {
		return models.AnalyticsEvent{}, err
	}

	listingID, err := uuid.Parse(e.ListingID)
	if err != nil {
		return models.AnalyticsEvent{}, fmt.Errorf("invalid listing id %q", e.ListingID)
	}

	return models.AnalyticsEvent{
		EventName:       name,
		ListingID:       listingID,
		SessionID:       sessionID,
		DeviceCategory:  device,
		Surface:         e.Surface,
		Position:        e.Position,
		DestinationType: e.DestinationType,
		SearchQuery:     e.SearchQuery,
		Referrer:        e.Referrer,
	}, nil
}
