package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// MembershipDTO is the transport shape returned to members and admins.
type MembershipDTO struct {
	ID                   uuid.UUID              `json:"id"`
	UserID               uuid.UUID              `json:"user_id"`
	Status               enums.MembershipStatus `json:"status"`
	PlanName             string                 `json:"plan_name"`
	CurrentPeriodStart   time.Time              `json:"current_period_start"`
	CurrentPeriodEnd     time.Time              `json:"current_period_end"`
	CancelAtPeriodEnd    bool                   `json:"cancel_at_period_end"`
	StripeSubscriptionID string                 `json:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// MemberRosterItem joins a membership with the owning user for admin listings.
type MemberRosterItem struct {
	MembershipDTO
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

func FromModel(m *models.Membership) *MembershipDTO {
	if m == nil {
		return nil
	}
	return &MembershipDTO{
		ID:                   m.ID,
		UserID:               m.UserID,
		Status:               m.Status,
		PlanName:             m.PlanName,
		CurrentPeriodStart:   m.CurrentPeriodStart,
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
		StripeSubscriptionID: m.StripeSubscriptionID,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
