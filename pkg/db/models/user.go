package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// User represents the canonical identity entity. A user with a NULL password
// hash has been provisioned by a checkout event but has not registered yet.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	Name         *string        `gorm:"column:name"`
	PasswordHash *string        `gorm:"column:password_hash"`
	Role         enums.UserRole `gorm:"column:role;type:user_role;not null;default:'member'"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// IsRegistered reports whether the user has completed token redemption.
func (u *User) IsRegistered() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}
