// Package catalog provides read-only access to the catalog service's
// listings and users tables. The analytics service never writes these; it
// resolves slugs at ingest time, loads eligible listings for ranking, and
// looks up digest recipients.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolstash/toolstash-backend/pkg/db/models"
	"github.com/toolstash/toolstash-backend/pkg/enums"
)

// Repository wires together the catalog read helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindListingBySlug loads a listing by its public slug. Returns (nil, nil)
// when no listing matches so ingest can record the page view without an
// attribution rather than failing the request.
func (r *Repository) FindListingBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).First(&listing, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListEligibleListings returns every approved, active listing. Ranking and
// digests only ever consider this set.
func (r *Repository) ListEligibleListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_active = ?", enums.ListingStatusApproved, true).
		Order("category, slug").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// ListEligibleByOwner returns the owner's approved, active listings.
func (r *Repository) ListEligibleByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ? AND is_active = ?", ownerID, enums.ListingStatusApproved, true).
		Order("slug").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// ListDigestRecipients returns opted-in users whose preferred digest day
// matches the given weekday (0=Sunday .. 6=Saturday).
func (r *Repository) ListDigestRecipients(ctx context.Context, weekday time.Weekday) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("digest_opt_in = ? AND digest_day = ?", true, int(weekday)).
		Order("email").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// MarkDigestSent stamps the user's last digest timestamp.
func (r *Repository) MarkDigestSent(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_digest_at", at).Error
}
