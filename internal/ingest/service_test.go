package ingest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolstash/toolstash-backend/pkg/config"
	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/enums"
	pkgerrors "github.com/toolstash/toolstash-backend/pkg/errors"
)

type fakeStore struct {
	pageViews       []*models.PageView
	events          []models.AnalyticsEvent
	durationID      uuid.UUID
	durationSeconds int
	durationRows    int64
}

func (f *fakeStore) InsertPageView(_ context.Context, view *models.PageView) (*models.PageView, error) {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	f.pageViews = append(f.pageViews, view)
	return view, nil
}

func (f *fakeStore) UpdatePageViewDuration(_ context.Context, id uuid.UUID, seconds int) (int64, error) {
	f.durationID = id
	f.durationSeconds = seconds
	return f.durationRows, nil
}

func (f *fakeStore) InsertEvents(_ context.Context, events []models.AnalyticsEvent) error {
	f.events = append(f.events, events...)
	return nil
}

type fakeCatalog struct {
	listings map[string]*models.Listing
}

func (f *fakeCatalog) FindListingBySlug(_ context.Context, slug string) (*models.Listing, error) {
	return f.listings[slug], nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{MaxBatchSize: 20, MaxDurationSecs: 1800}
}

func newTestService(t *testing.T, store *fakeStore, catalog *fakeCatalog) Service {
	t.Helper()

	svc, err := NewService(store, catalog, testIngestConfig(), nil)
	require.NoError(t, err)
	return svc
}

func TestCollectPageViewAttributesListing(t *testing.T) {
	listing := &models.Listing{ID: uuid.New(), Slug: "json-wrangler", Category: "cli"}
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{listings: map[string]*models.Listing{"json-wrangler": listing}})

	res, err := svc.CollectPageView(context.Background(), CollectInput{
		Path:      "/tools/json-wrangler",
		VisitorID: "vis-1",
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, store.pageViews, 1)
	stored := store.pageViews[0]
	require.NotNil(t, stored.ListingID)
	assert.Equal(t, listing.ID, *stored.ListingID)
	require.NotNil(t, stored.Category)
	assert.Equal(t, "cli", *stored.Category)
	assert.Equal(t, stored.ID, res.PageViewID)
}

func TestCollectPageViewKeepsUserID(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	userID := uuid.New()
	_, err := svc.CollectPageView(context.Background(), CollectInput{
		Path:      "/about",
		VisitorID: "vis-1",
		UserID:    &userID,
	})
	require.NoError(t, err)

	require.Len(t, store.pageViews, 1)
	require.NotNil(t, store.pageViews[0].UserID)
	assert.Equal(t, userID, *store.pageViews[0].UserID)
}

func TestCollectPageViewUnknownSlugIsUnattributed(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.CollectPageView(context.Background(), CollectInput{
		Path:      "/tools/ghost",
		VisitorID: "vis-1",
	})
	require.NoError(t, err)

	require.Len(t, store.pageViews, 1)
	assert.Nil(t, store.pageViews[0].ListingID)
	assert.Nil(t, store.pageViews[0].Category)
}

func TestCollectPageViewCategoryPage(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.CollectPageView(context.Background(), CollectInput{
		Path:      "/categories/cli",
		VisitorID: "vis-1",
	})
	require.NoError(t, err)

	require.Len(t, store.pageViews, 1)
	require.NotNil(t, store.pageViews[0].Category)
	assert.Equal(t, "cli", *store.pageViews[0].Category)
	assert.Nil(t, store.pageViews[0].ListingID)
}

func TestRecordDurationClamps(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{1800, 1800},
		{99999, 1800},
	}

	for _, tc := range cases {
		store := &fakeStore{durationRows: 1}
		svc := newTestService(t, store, &fakeCatalog{})

		id := uuid.New()
		err := svc.RecordDuration(context.Background(), DurationInput{PageViewID: id, DurationSeconds: tc.in})
		require.NoError(t, err)
		assert.Equal(t, id, store.durationID)
		assert.Equal(t, tc.want, store.durationSeconds, "duration %d", tc.in)
	}
}

func TestRecordDurationMissingRowIsDropped(t *testing.T) {
	store := &fakeStore{durationRows: 0}
	svc := newTestService(t, store, &fakeCatalog{})

	err := svc.RecordDuration(context.Background(), DurationInput{PageViewID: uuid.New(), DurationSeconds: 10})
	assert.NoError(t, err)
}

func TestRecordEventBatchStoresAll(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	surface := "home"
	res, err := svc.RecordEventBatch(context.Background(), EventBatchInput{
		SessionID:      "sess-1",
		DeviceCategory: "mobile",
		Events: []EventInput{
			{EventName: "impression", ListingID: uuid.NewString(), Surface: &surface},
			{EventName: "bookmark", ListingID: uuid.NewString()},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	require.Len(t, store.events, 2)
	assert.Equal(t, enums.AnalyticsEventImpression, store.events[0].EventName)
	assert.Equal(t, "sess-1", store.events[0].SessionID)
	assert.Equal(t, enums.DeviceCategoryMobile, store.events[0].DeviceCategory)
	require.NotNil(t, store.events[0].Surface)
	assert.Equal(t, "home", *store.events[0].Surface)
}

func TestRecordEventBatchRejectsOversized(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	events := make([]EventInput, 21)
	for i := range events {
		events[i] = EventInput{EventName: "impression", ListingID: uuid.NewString()}
	}

	_, err := svc.RecordEventBatch(context.Background(), EventBatchInput{SessionID: "sess-1", Events: events})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, store.events)
}

func TestRecordEventBatchOneInvalidRejectsAll(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.RecordEventBatch(context.Background(), EventBatchInput{
		SessionID: "sess-1",
		Events: []EventInput{
			{EventName: "impression", ListingID: uuid.NewString()},
			{EventName: "page_exploded", ListingID: uuid.NewString()},
		},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, store.events, "no events may be written when any event is invalid")
}

func TestRecordEventBatchRejectsBadListingID(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.RecordEventBatch(context.Background(), EventBatchInput{
		SessionID: "sess-1",
		Events:    []EventInput{{EventName: "share", ListingID: "not-a-uuid"}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRecordEventBatchRejectsUnknownDevice(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.RecordEventBatch(context.Background(), EventBatchInput{
		SessionID:      "sess-1",
		DeviceCategory: "smartfridge",
		Events:         []EventInput{{EventName: "share", ListingID: uuid.NewString()}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRecordEventBatchDefaultsDeviceToDesktop(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, &fakeCatalog{})

	_, err := svc.RecordEventBatch(context.Background(), EventBatchInput{
		SessionID: "sess-1",
		Events:    []EventInput{{EventName: "tag_click", ListingID: uuid.NewString()}},
	})
	require.NoError(t, err)
	require.Len(t, store.events, 1)
	assert.Equal(t, enums.DeviceCategoryDesktop, store.events[0].DeviceCategory)
}
