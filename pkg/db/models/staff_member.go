package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffMember is an ordered, soft-deletable directory row.
type StaffMember struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Role         string    `gorm:"column:role;not null"`
	Bio          *string   `gorm:"column:bio"`
	ImageURL     *string   `gorm:"column:image_url"`
	Email        *string   `gorm:"column:email"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
