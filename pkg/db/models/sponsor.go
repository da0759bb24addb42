package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// Sponsor is an ordered, soft-deletable listing row with an optional
// active-date window. Rows past their end date drop out of public listings.
type Sponsor struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string            `gorm:"column:name;not null"`
	LogoURL      string            `gorm:"column:logo_url;not null"`
	WebsiteURL   *string           `gorm:"column:website_url"`
	Tier         enums.SponsorTier `gorm:"column:tier;type:sponsor_tier;not null"`
	DisplayOrder int               `gorm:"column:display_order;not null;default:0"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	StartDate    *time.Time        `gorm:"column:start_date"`
	EndDate      *time.Time        `gorm:"column:end_date"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
