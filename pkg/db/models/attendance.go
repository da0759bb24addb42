package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is an immutable point-ledger row. Corrections are handled by
// deleting and re-creating a row, never by update.
type Attendance struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Date      time.Time `gorm:"column:date;not null"`
	Points    int       `gorm:"column:points;not null"`
	EventName *string   `gorm:"column:event_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
