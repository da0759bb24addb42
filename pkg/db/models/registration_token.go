package models

import "time"

// RegistrationToken binds an email to a single-use registration link. The
// token string is the primary key, so a duplicate insert fails at the
// database instead of racing a find-then-create check.
type RegistrationToken struct {
	Token      string    `gorm:"column:token;primaryKey"`
	Identifier string    `gorm:"column:identifier;not null;index"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
