package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/enums"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  digest_opt_in INTEGER NOT NULL DEFAULT 0,
  digest_day INTEGER NOT NULL DEFAULT 1,
  last_digest_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	listings := `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  slug TEXT NOT NULL,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  tags TEXT NOT NULL DEFAULT '{}',
  website_url TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(listings).Error)
	return db
}

func newListing(t *testing.T, db *gorm.DB, slug, category string, status enums.ListingStatus, active bool) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Slug:     slug,
		Name:     slug,
		Category: category,
		Tags:     pq.StringArray{},
		Status:   status,
		IsActive: active,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestFindListingBySlug(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newListing(t, db, "json-wrangler", "cli", enums.ListingStatusApproved, true)

	found, err := repo.FindListingBySlug(ctx, "json-wrangler")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "cli", found.Category)

	missing, err := repo.FindListingBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListEligibleListings(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newListing(t, db, "a-tool", "cli", enums.ListingStatusApproved, true)
	newListing(t, db, "b-tool", "editor", enums.ListingStatusApproved, true)
	newListing(t, db, "pending-tool", "cli", enums.ListingStatusPending, true)
	newListing(t, db, "inactive-tool", "cli", enums.ListingStatusApproved, false)

	eligible, err := repo.ListEligibleListings(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "a-tool", eligible[0].Slug)
	assert.Equal(t, "b-tool", eligible[1].Slug)
}

func TestListEligibleByOwner(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	mine := &models.Listing{
		ID: uuid.New(), OwnerID: owner, Slug: "mine", Name: "mine",
		Category: "cli", Tags: pq.StringArray{}, Status: enums.ListingStatusApproved, IsActive: true,
	}
	require.NoError(t, db.Create(mine).Error)
	newListing(t, db, "other", "cli", enums.ListingStatusApproved, true)

	got, err := repo.ListEligibleByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Slug)
}

func TestListDigestRecipients(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	monday := &models.User{ID: uuid.New(), Email: "mon@example.com", DigestOptIn: true, DigestDay: 1}
	friday := &models.User{ID: uuid.New(), Email: "fri@example.com", DigestOptIn: true, DigestDay: 5}
	optedOut := &models.User{ID: uuid.New(), Email: "out@example.com", DigestOptIn: false, DigestDay: 1}
	require.NoError(t, db.Create(monday).Error)
	require.NoError(t, db.Create(friday).Error)
	require.NoError(t, db.Create(optedOut).Error)

	got, err := repo.ListDigestRecipients(ctx, time.Monday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mon@example.com", got[0].Email)
}

func TestMarkDigestSent(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "mon@example.com", DigestOptIn: true, DigestDay: 1}
	require.NoError(t, db.Create(user).Error)

	sentAt := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkDigestSent(ctx, user.ID, sentAt))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	require.NotNil(t, reloaded.LastDigestAt)
	assert.True(t, reloaded.LastDigestAt.Equal(sentAt))
}
