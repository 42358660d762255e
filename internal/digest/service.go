// Package digest computes the weekly owner digest: per-listing metrics for
// the trailing week compared against the week before it, published as one
// message per recipient.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/toolstash/toolstash-backend/internal/aggregate"
	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// windowDays is the digest window; the comparison window mirrors its length
// immediately before it.
const windowDays = 7

// Service computes and publishes weekly digests.
type Service interface {
	Run(ctx context.Context, now time.Time) (*Summary, error)
}

type recipientSource interface {
	ListDigestRecipients(ctx context.Context, weekday time.Weekday) ([]models.User, error)
	ListEligibleByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error)
	MarkDigestSent(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type metricSource interface {
	SumDailyMetrics(ctx context.Context, listingIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]aggregate.MetricTotals, error)
}

type publisher interface {
	PublishDigest(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

type service struct {
	catalog   recipientSource
	stats     metricSource
	publisher publisher
	logg      *logger.Logger
}

// NewService constructs the digest service.
func NewService(catalog recipientSource, stats metricSource, pub publisher, logg *logger.Logger) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stats == nil {
		return nil, fmt.Errorf("metrics repository required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{catalog: catalog, stats: stats, publisher: pub, logg: logg}, nil
}

// Run publishes digests for every user whose preferred day matches now's UTC
// weekday. Users without eligible listings are skipped, and one user's
// failure never blocks the rest.
func (s *service) Run(ctx context.Context, now time.Time) (*Summary, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -windowDays)
	prevStart := start.AddDate(0, 0, -windowDays)

	summary := &Summary{}
	var errs error

	users, err := s.catalog.ListDigestRecipients(ctx, end.Weekday())
	if err != nil {
		return nil, fmt.Errorf("listing digest recipients: %w", err)
	}

	for _, user := range users {
		if err := s.publishForUser(ctx, user, prevStart, start, end); err != nil {
			if err == errNoListings {
				summary.UsersSkipped++
				continue
			}
			summary.UsersFailed++
			errs = multierr.Append(errs, fmt.Errorf("digest for %s: %w", user.ID, err))
			s.logg.Error(s.logg.WithField(ctx, "user_id", user.ID.String()), "publishing digest", err)
			continue
		}
		summary.UsersProcessed++
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"processed": summary.UsersProcessed,
		"skipped":   summary.UsersSkipped,
		"failed":    summary.UsersFailed,
	}), "weekly digest run finished")

	return summary, errs
}

var errNoListings = fmt.Errorf("no eligible listings")

func (s *service) publishForUser(ctx context.Context, user models.User, prevStart, start, end time.Time) error {
	listings, err := s.catalog.ListEligibleByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading listings: %w", err)
	}
	if len(listings) == 0 {
		return errNoListings
	}

	ids := lo.Map(listings, func(l models.Listing, _ int) uuid.UUID { return l.ID })

	current, err := s.stats.SumDailyMetrics(ctx, ids, start, end)
	if err != nil {
		return fmt.Errorf("summing current window: %w", err)
	}
	previous, err := s.stats.SumDailyMetrics(ctx, ids, prevStart, start)
	if err != nil {
		return fmt.Errorf("summing previous window: %w", err)
	}

	entries := make([]ListingDigest, 0, len(listings))
	for _, listing := range listings {
		entries = append(entries, ListingDigest{
			ListingID:    listing.ID,
			Slug:         listing.Slug,
			Name:         listing.Name,
			ThisWeek:     windowFromTotals(current[listing.ID]),
			PreviousWeek: windowFromTotals(previous[listing.ID]),
		})
	}
	markBestPerformer(entries)

	payload := Payload{
		UserID:      user.ID,
		Email:       user.Email,
		PeriodStart: start,
		PeriodEnd:   end,
		Listings:    entries,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	if _, err := s.publisher.PublishDigest(ctx, data, map[string]string{
		"user_id": user.ID.String(),
		"period":  end.Format("2006-01-02"),
	}); err != nil {
		return fmt.Errorf("publishing: %w", err)
	}

	if err := s.catalog.MarkDigestSent(ctx, user.ID, end); err != nil {
		return fmt.Errorf("stamping last digest: %w", err)
	}
	return nil
}

func windowFromTotals(totals aggregate.MetricTotals) MetricWindow {
	return MetricWindow{
		Impressions:    totals.Impressions,
		DetailViews:    totals.DetailViews,
		OutboundClicks: totals.OutboundClicks,
		TagClicks:      totals.TagClicks,
		Shares:         totals.Shares,
		Bookmarks:      totals.Bookmarks,
	}
}

// markBestPerformer flags the listing with the most impressions in the
// current window. Nothing is flagged when every listing sat at zero.
func markBestPerformer(entries []ListingDigest) {
	best := -1
	var bestImpressions int64
	for i, entry := range entries {
		if entry.ThisWeek.Impressions > bestImpressions {
			best = i
			bestImpressions = entry.ThisWeek.Impressions
		}
	}
	if best >= 0 {
		entries[best].BestPerformer = true
	}
}
