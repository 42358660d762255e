package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the user service's table; only digest preferences are read
// here.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	DigestOptIn  bool       `gorm:"column:digest_opt_in;not null;default:false"`
	DigestDay    int        `gorm:"column:digest_day;not null;default:1"`
	LastDigestAt *time.Time `gorm:"column:last_digest_at;type:timestamptz"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"`
}

func (*User) TableName() string {
	return "users"
}
