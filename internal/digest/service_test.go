package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolstash/toolstash-backend/internal/aggregate"
	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/logger"
)

type fakeRecipients struct {
	users      []models.User
	listings   map[uuid.UUID][]models.Listing
	marked     map[uuid.UUID]time.Time
	listingErr error
}

func (f *fakeRecipients) ListDigestRecipients(_ context.Context, _ time.Weekday) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeRecipients) ListEligibleByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	return f.listings[ownerID], nil
}

func (f *fakeRecipients) MarkDigestSent(_ context.Context, userID uuid.UUID, at time.Time) error {
	if f.marked == nil {
		f.marked = map[uuid.UUID]time.Time{}
	}
	f.marked[userID] = at
	return nil
}

type fakeStats struct {
	// keyed by window start date
	byWindow map[string]map[uuid.UUID]aggregate.MetricTotals
}

func (f *fakeStats) SumDailyMetrics(_ context.Context, _ []uuid.UUID, start, _ time.Time) (map[uuid.UUID]aggregate.MetricTotals, error) {
	return f.byWindow[start.Format("2006-01-02")], nil
}

type fakePublisher struct {
	payloads []Payload
	attrs    []map[string]string
	err      error
}

func (f *fakePublisher) PublishDigest(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	f.payloads = append(f.payloads, p)
	f.attrs = append(f.attrs, attrs)
	return "msg-1", nil
}

func testDigestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestRunPublishesMirrorWindows(t *testing.T) {
	owner := models.User{ID: uuid.New(), Email: "owner@example.com", DigestOptIn: true, DigestDay: 1}
	listing := models.Listing{ID: uuid.New(), Slug: "json-wrangler", Name: "JSON Wrangler", Category: "cli"}

	// Monday June 2 2025; window [May 26, Jun 2), previous [May 19, May 26).
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	stats := &fakeStats{byWindow: map[string]map[uuid.UUID]aggregate.MetricTotals{
		"2025-05-26": {listing.ID: {Impressions: 40, DetailViews: 12}},
		"2025-05-19": {listing.ID: {Impressions: 25, DetailViews: 9}},
	}}

	recipients := &fakeRecipients{
		users:    []models.User{owner},
		listings: map[uuid.UUID][]models.Listing{owner.ID: {listing}},
	}
	pub := &fakePublisher{}

	svc, err := NewService(recipients, stats, pub, testDigestLogger())
	require.NoError(t, err)

	summary, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersProcessed)
	assert.Equal(t, 0, summary.UsersSkipped)
	assert.Equal(t, 0, summary.UsersFailed)

	require.Len(t, pub.payloads, 1)
	payload := pub.payloads[0]
	assert.Equal(t, owner.ID, payload.UserID)
	assert.Equal(t, "owner@example.com", payload.Email)
	assert.Equal(t, time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC), payload.PeriodStart)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), payload.PeriodEnd)

	require.Len(t, payload.Listings, 1)
	entry := payload.Listings[0]
	assert.Equal(t, int64(40), entry.ThisWeek.Impressions)
	assert.Equal(t, int64(25), entry.PreviousWeek.Impressions)
	assert.Equal(t, int64(12), entry.ThisWeek.DetailViews)
	assert.True(t, entry.BestPerformer)

	assert.Equal(t, "2025-06-02", pub.attrs[0]["period"])
	require.Contains(t, recipients.marked, owner.ID)
}

func TestRunSkipsUsersWithoutListings(t *testing.T) {
	owner := models.User{ID: uuid.New(), Email: "empty@example.com"}
	recipients := &fakeRecipients{users: []models.User{owner}, listings: map[uuid.UUID][]models.Listing{}}
	pub := &fakePublisher{}

	svc, err := NewService(recipients, &fakeStats{}, pub, testDigestLogger())
	require.NoError(t, err)

	summary, err := svc.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersSkipped)
	assert.Empty(t, pub.payloads)
	assert.Empty(t, recipients.marked, "skipped users keep their last digest timestamp")
}

func TestRunIsolatesFailingUser(t *testing.T) {
	ok := models.User{ID: uuid.New(), Email: "ok@example.com"}
	bad := models.User{ID: uuid.New(), Email: "bad@example.com"}
	listing := models.Listing{ID: uuid.New(), Slug: "a", Name: "A"}

	recipients := &fakeRecipients{
		users: []models.User{bad, ok},
		listings: map[uuid.UUID][]models.Listing{
			ok.ID:  {listing},
			bad.ID: {listing},
		},
	}
	// first publish fails, second succeeds
	calls := 0
	pubErr := fmt.Errorf("topic unavailable")
	wrapped := &fakePublisher{}
	failFirst := publisherFunc(func(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
		calls++
		if calls == 1 {
			return "", pubErr
		}
		return wrapped.PublishDigest(ctx, data, attrs)
	})

	svc, err := NewService(recipients, &fakeStats{}, failFirst, testDigestLogger())
	require.NoError(t, err)

	summary, err := svc.Run(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, summary.UsersFailed)
	assert.Equal(t, 1, summary.UsersProcessed)
	require.Len(t, wrapped.payloads, 1)
	assert.Equal(t, "ok@example.com", wrapped.payloads[0].Email)
	assert.NotContains(t, recipients.marked, bad.ID)
}

type publisherFunc func(ctx context.Context, data []byte, attrs map[string]string) (string, error)

func (f publisherFunc) PublishDigest(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	return f(ctx, data, attrs)
}

func TestBestPerformerNotFlaggedAtZero(t *testing.T) {
	entries := []ListingDigest{
		{Slug: "a"},
		{Slug: "b"},
	}
	markBestPerformer(entries)
	assert.False(t, entries[0].BestPerformer)
	assert.False(t, entries[1].BestPerformer)
}
