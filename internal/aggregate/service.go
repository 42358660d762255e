// Package aggregate builds the per-listing daily rollups: event counters,
// unique sessions, referral and outbound breakdowns, search term rollups, and
// the per-category impression ranking.
package aggregate

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/toolstash/toolstash-backend/pkg/db/models"
	dbtypes "github.com/toolstash/toolstash-backend/pkg/db/types"
	"github.com/toolstash/toolstash-backend/pkg/enums"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

// rankWindowDays is the trailing window rankings are computed over, inclusive
// of the day being aggregated.
const rankWindowDays = 30

// Summary reports what a single aggregation run did.
type Summary struct {
	Date               string `json:"date"`
	ListingsProcessed  int    `json:"listings_processed"`
	ListingsFailed     int    `json:"listings_failed"`
	SearchRowsUpserted int    `json:"search_rows_upserted"`
	RankedCategories   int    `json:"ranked_categories"`
}

// Service runs the daily aggregation.
type Service interface {
	Run(ctx context.Context, day time.Time) (*Summary, error)
}

type aggregateStore interface {
	DistinctListingIDs(ctx context.Context, start, end time.Time) ([]uuid.UUID, error)
	EventsForListing(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]models.AnalyticsEvent, error)
	UpsertDailyAggregate(ctx context.Context, row *models.DailyAggregate) error
	UpsertSearchQueryAggregates(ctx context.Context, rows []models.SearchQueryAggregate) error
	TrailingImpressions(ctx context.Context, listingIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]int64, error)
	SetCategoryRank(ctx context.Context, listingID uuid.UUID, date time.Time, rank int) error
}

type eligibleLister interface {
	ListEligibleListings(ctx context.Context) ([]models.Listing, error)
}

type service struct {
	repo    aggregateStore
	catalog eligibleLister
	logg    *logger.Logger
}

// NewService constructs the aggregation service.
func NewService(repo aggregateStore, catalog eligibleLister, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("aggregate repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, catalog: catalog, logg: logg}, nil
}

// Run aggregates one UTC day. A failing listing does not stop the run; its
// error is collected and the rest of the day still lands. Re-running the same
// day overwrites, never increments.
func (s *service) Run(ctx context.Context, day time.Time) (*Summary, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	summary := &Summary{Date: start.Format("2006-01-02")}
	var errs error

	listingIDs, err := s.repo.DistinctListingIDs(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing listings with events: %w", err)
	}

	searchRows := make([]models.SearchQueryAggregate, 0)

	for _, listingID := range listingIDs {
		lctx := s.logg.WithListingID(ctx, listingID.String())

		events, err := s.repo.EventsForListing(ctx, listingID, start, end)
		if err != nil {
			summary.ListingsFailed++
			errs = multierr.Append(errs, fmt.Errorf("loading events for %s: %w", listingID, err))
			s.logg.Error(lctx, "loading listing events", err)
			continue
		}

		row := buildRollup(listingID, start, events)
		if err := s.repo.UpsertDailyAggregate(ctx, row); err != nil {
			summary.ListingsFailed++
			errs = multierr.Append(errs, fmt.Errorf("upserting rollup for %s: %w", listingID, err))
			s.logg.Error(lctx, "upserting daily rollup", err)
			continue
		}

		searchRows = append(searchRows, buildSearchRollup(listingID, start, events)...)
		summary.ListingsProcessed++
	}

	if err := s.repo.UpsertSearchQueryAggregates(ctx, searchRows); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("upserting search rollups: %w", err))
		s.logg.Error(ctx, "upserting search rollups", err)
	} else {
		summary.SearchRowsUpserted = len(searchRows)
	}

	ranked, err := s.rankCategories(ctx, start)
	if err != nil {
		errs = multierr.Append(errs, err)
		s.logg.Error(ctx, "ranking categories", err)
	}
	summary.RankedCategories = ranked

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"date":      summary.Date,
		"processed": summary.ListingsProcessed,
		"failed":    summary.ListingsFailed,
	}), "daily aggregation finished")

	return summary, errs
}

// rankCategories assigns consecutive 1..N ranks per category from trailing-window
// impressions, one batched sum per category. Ranks land only on rows that
// exist for the day.
func (s *service) rankCategories(ctx context.Context, day time.Time) (int, error) {
	listings, err := s.catalog.ListEligibleListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing eligible listings: %w", err)
	}
	if len(listings) == 0 {
		return 0, nil
	}

	windowStart := day.AddDate(0, 0, -(rankWindowDays - 1))

	byCategory := lo.GroupBy(listings, func(l models.Listing) string { return l.Category })
	categories := lo.Keys(byCategory)
	sort.Strings(categories)

	var errs error
	ranked := 0
	for _, category := range categories {
		members := byCategory[category]
		ids := lo.Map(members, func(l models.Listing, _ int) uuid.UUID { return l.ID })

		totals, err := s.repo.TrailingImpressions(ctx, ids, windowStart, day)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("summing impressions for category %q: %w", category, err))
			continue
		}

		sort.Slice(members, func(i, j int) bool {
			ti, tj := totals[members[i].ID], totals[members[j].ID]
			if ti != tj {
				return ti > tj
			}
			return members[i].Slug < members[j].Slug
		})

		failed := false
		for i, member := range members {
			// Ranks are 1..N with no duplicates; ties are broken by the
			// slug ordering above, so position is the rank.
			if err := s.repo.SetCategoryRank(ctx, member.ID, day, i+1); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("writing rank for %s: %w", member.ID, err))
				failed = true
			}
		}
		if !failed {
			ranked++
		}
	}

	return ranked, errs
}

// buildRollup folds one listing's raw events into its daily row.
func buildRollup(listingID uuid.UUID, date time.Time, events []models.AnalyticsEvent) *models.DailyAggregate {
	row := &models.DailyAggregate{
		ListingID:         listingID,
		Date:              date,
		ReferralBreakdown: dbtypes.CountMap{},
		OutboundBreakdown: dbtypes.CountMap{},
	}

	for _, e := range events {
		switch e.EventName {
		case enums.AnalyticsEventImpression:
			row.Impressions++
		case enums.AnalyticsEventDetailView:
			row.DetailViews++
		case enums.AnalyticsEventOutboundClick:
			row.OutboundClicks++
			if key, ok := destinationKey(e.DestinationType); ok {
				row.OutboundBreakdown[key]++
			}
		case enums.AnalyticsEventTagClick:
			row.TagClicks++
		case enums.AnalyticsEventShare:
			row.Shares++
		case enums.AnalyticsEventBookmark:
			row.Bookmarks++
		}

		if key, ok := referralKey(e.Referrer); ok {
			row.ReferralBreakdown[key]++
		}
	}

	sessions := lo.Uniq(lo.Map(events, func(e models.AnalyticsEvent, _ int) string { return e.SessionID }))
	row.UniqueSessions = int64(len(sessions))

	return row
}

// buildSearchRollup counts normalized search terms attached to the listing's
// events for the day.
func buildSearchRollup(listingID uuid.UUID, date time.Time, events []models.AnalyticsEvent) []models.SearchQueryAggregate {
	counts := map[string]int64{}
	for _, e := range events {
		if e.SearchQuery == nil {
			continue
		}
		query := strings.ToLower(strings.TrimSpace(*e.SearchQuery))
		if query == "" {
			continue
		}
		counts[query]++
	}
	if len(counts) == 0 {
		return nil
	}

	queries := lo.Keys(counts)
	sort.Strings(queries)

	rows := make([]models.SearchQueryAggregate, 0, len(queries))
	for _, query := range queries {
		rows = append(rows, models.SearchQueryAggregate{
			ListingID: listingID,
			Date:      date,
			Query:     query,
			Count:     counts[query],
		})
	}
	return rows
}

// referralKey normalizes a referrer to its hostname, falling back to the raw
// value when it does not parse as an absolute URL.
func referralKey(referrer *string) (string, bool) {
	if referrer == nil {
		return "", false
	}
	raw := strings.TrimSpace(*referrer)
	if raw == "" {
		return "", false
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return strings.ToLower(u.Host), true
	}
	return raw, true
}

// destinationKey reports the outbound breakdown key. Clicks without a
// destination type still count toward OutboundClicks but are left out of the
// breakdown entirely.
func destinationKey(destination *string) (string, bool) {
	if destination == nil || *destination == "" {
		return "", false
	}
	return *destination, true
}
