package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

const defaultExpiryGrace = 24 * time.Hour

// Statuses the expiry sweep considers. Pending rows are left alone until
// their first invoice settles; expired rows are already terminal.
var expirableStatuses = []enums.MembershipStatus{
	enums.MembershipStatusActive,
	enums.MembershipStatusPastDue,
	enums.MembershipStatusCancelled,
}

// MembershipExpireJobParams configures the scheduled expiry sweep.
type MembershipExpireJobParams struct {
	Logger     *logger.Logger
	Repository membershipExpiryRepo
	Grace      time.Duration
}

type membershipExpiryRepo interface {
	ListLapsed(ctx context.Context, statuses []enums.MembershipStatus, cutoff time.Time) ([]models.Membership, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// NewMembershipExpireJob constructs the membership expiry cron job. It moves
// memberships whose billing period ended more than the grace period ago to
// EXPIRED. No notification is sent for expiry.
func NewMembershipExpireJob(params MembershipExpireJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultExpiryGrace
	}
	return &membershipExpireJob{
		logg:  params.Logger,
		repo:  params.Repository,
		grace: grace,
		now:   time.Now,
	}, nil
}

type membershipExpireJob struct {
	logg  *logger.Logger
	repo  membershipExpiryRepo
	grace time.Duration
	now   func() time.Time
}

func (j *membershipExpireJob) Name() string { return "membership-expire" }

func (j *membershipExpireJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	lapsed, err := j.repo.ListLapsed(ctx, expirableStatuses, cutoff)
	if err != nil {
		return fmt.Errorf("query lapsed memberships: %w", err)
	}
	if len(lapsed) == 0 {
		j.logg.Info(ctx, "no lapsed memberships to expire")
		return nil
	}

	ids := make([]uuid.UUID, len(lapsed))
	for i, membership := range lapsed {
		ids[i] = membership.ID
	}
	expired, err := j.repo.MarkExpired(ctx, ids)
	if err != nil {
		return fmt.Errorf("mark memberships expired: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_expired": expired,
	})
	j.logg.Info(logCtx, "membership expiry sweep complete")
	return nil
}
