package memberships

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

type membershipsRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
	SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error
	ListWithUsers(ctx context.Context, status *enums.MembershipStatus) ([]MemberRosterItem, error)
}

// Service exposes the member-facing and admin membership surface. Status is
// never mutated here; billing events own every transition.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*MembershipDTO, error)
	RequestCancellation(ctx context.Context, userID uuid.UUID) (*MembershipDTO, error)
	ListMembers(ctx context.Context, statusFilter string) ([]MemberRosterItem, error)
}

type service struct {
	repo membershipsRepository
}

// NewService builds the membership service.
func NewService(repo membershipsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID) (*MembershipDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	membership, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup membership")
	}
	return FromModel(membership), nil
}

func (s *service) RequestCancellation(ctx context.Context, userID uuid.UUID) (*MembershipDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	membership, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup membership")
	}

	// The flag may be set from any status; billing events alone decide when
	// the membership actually ends.
	if !membership.CancelAtPeriodEnd {
		if err := s.repo.SetCancelAtPeriodEnd(ctx, membership.ID, true); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag cancellation")
		}
		membership.CancelAtPeriodEnd = true
	}

	return FromModel(membership), nil
}

func (s *service) ListMembers(ctx context.Context, statusFilter string) ([]MemberRosterItem, error) {
	var status *enums.MembershipStatus
	if statusFilter != "" {
		parsed, err := enums.ParseMembershipStatus(statusFilter)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		status = &parsed
	}

	items, err := s.repo.ListWithUsers(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return items, nil
}
