package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// Membership persists Stripe subscription state per user. Status changes are
// driven exclusively by billing events; the only user-initiated mutation is
// flagging cancel_at_period_end.
type Membership struct {
	ID                   uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Status               enums.MembershipStatus `gorm:"column:status;type:membership_status;not null;default:'pending'"`
	PlanName             string                 `gorm:"column:plan_name;not null"`
	StripeCustomerID     string                 `gorm:"column:stripe_customer_id;not null"`
	StripeSubscriptionID string                 `gorm:"column:stripe_subscription_id;not null;unique"`
	CurrentPeriodStart   time.Time              `gorm:"column:current_period_start;not null"`
	CurrentPeriodEnd     time.Time              `gorm:"column:current_period_end;not null"`
	CancelAtPeriodEnd    bool                   `gorm:"column:cancel_at_period_end;not null;default:false"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
