package memberships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

// Repository exposes membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new membership record.
func (r *Repository) Create(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	if !membership.Status.IsValid() {
		return nil, fmt.Errorf("invalid membership status %q", membership.Status)
	}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// FindByUserID returns the most recent membership for the user.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindBySubscriptionID correlates a membership by its Stripe subscription.
func (r *Repository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// Update persists the full membership row.
func (r *Repository) Update(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Save(membership).Error
}

// SetCancelAtPeriodEnd flips the member-facing cancellation flag.
func (r *Repository) SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		UpdateColumn("cancel_at_period_end", cancel).Error
}

// ListWithUsers returns memberships joined with user metadata, optionally
// filtered by status, ordered by creation time.
func (r *Repository) ListWithUsers(ctx context.Context, status *enums.MembershipStatus) ([]MemberRosterItem, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, users.email, users.name").
		Joins("JOIN users ON users.id = memberships.user_id").
		Order("memberships.created_at")

	if status != nil {
		query = query.Where("memberships.status = ?", *status)
	}

	var rows []memberRosterRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rosterFromRows(rows), nil
}

// ListLapsed returns memberships in the provided statuses whose billing
// period ended before the cutoff.
func (r *Repository) ListLapsed(ctx context.Context, statuses []enums.MembershipStatus, cutoff time.Time) ([]models.Membership, error) {
	var rows []models.Membership
	err := r.db.WithContext(ctx).
		Where("status IN ? AND current_period_end < ?", statuses, cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkExpired transitions the provided memberships to expired in bulk.
func (r *Repository) MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id IN ?", ids).
		UpdateColumn("status", enums.MembershipStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

type memberRosterRow struct {
	models.Membership
	Email string
	Name  *string
}

func rosterFromRows(rows []memberRosterRow) []MemberRosterItem {
	items := make([]MemberRosterItem, len(rows))
	for i, row := range rows {
		items[i] = MemberRosterItem{
			MembershipDTO: *FromModel(&row.Membership),
			Email:         row.Email,
			Name:          row.Name,
		}
	}
	return items
}
