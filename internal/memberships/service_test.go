package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

type fakeMembershipsRepo struct {
	byUser      map[uuid.UUID]*models.Membership
	roster      []MemberRosterItem
	cancelCalls []uuid.UUID
}

func newFakeMembershipsRepo() *fakeMembershipsRepo {
	return &fakeMembershipsRepo{byUser: map[uuid.UUID]*models.Membership{}}
}

func (f *fakeMembershipsRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	m, ok := f.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMembershipsRepo) SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error {
	f.cancelCalls = append(f.cancelCalls, id)
	for _, m := range f.byUser {
		if m.ID == id {
			m.CancelAtPeriodEnd = cancel
		}
	}
	return nil
}

func (f *fakeMembershipsRepo) ListWithUsers(ctx context.Context, status *enums.MembershipStatus) ([]MemberRosterItem, error) {
	if status == nil {
		return f.roster, nil
	}
	var filtered []MemberRosterItem
	for _, item := range f.roster {
		if item.Status == *status {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func TestGetForUserNotFound(t *testing.T) {
	repo := newFakeMembershipsRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetForUser(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRequestCancellationFlagsActiveMembership(t *testing.T) {
	repo := newFakeMembershipsRepo()
	userID := uuid.New()
	repo.byUser[userID] = &models.Membership{
		ID:     uuid.New(),
		UserID: userID,
		Status: enums.MembershipStatusActive,
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.RequestCancellation(context.Background(), userID)
	if err != nil {
		t.Fatalf("request cancellation: %v", err)
	}
	if !dto.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end to be set")
	}
	if dto.Status != enums.MembershipStatusActive {
		t.Fatalf("cancellation must not change status, got %s", dto.Status)
	}
	if len(repo.cancelCalls) != 1 {
		t.Fatalf("expected one cancel call, got %d", len(repo.cancelCalls))
	}
}

func TestRequestCancellationIsIdempotent(t *testing.T) {
	repo := newFakeMembershipsRepo()
	userID := uuid.New()
	repo.byUser[userID] = &models.Membership{
		ID:                uuid.New(),
		UserID:            userID,
		Status:            enums.MembershipStatusActive,
		CancelAtPeriodEnd: true,
	}

	svc, _ := NewService(repo)
	dto, err := svc.RequestCancellation(context.Background(), userID)
	if err != nil {
		t.Fatalf("request cancellation: %v", err)
	}
	if !dto.CancelAtPeriodEnd {
		t.Fatal("expected flag to remain set")
	}
	if len(repo.cancelCalls) != 0 {
		t.Fatal("already-flagged membership should not trigger another update")
	}
}

func TestRequestCancellationFlagsAnyStatus(t *testing.T) {
	statuses := []enums.MembershipStatus{
		enums.MembershipStatusPending,
		enums.MembershipStatusPastDue,
		enums.MembershipStatusCancelled,
		enums.MembershipStatusExpired,
	}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			repo := newFakeMembershipsRepo()
			userID := uuid.New()
			repo.byUser[userID] = &models.Membership{
				ID:     uuid.New(),
				UserID: userID,
				Status: status,
			}

			svc, _ := NewService(repo)
			dto, err := svc.RequestCancellation(context.Background(), userID)
			if err != nil {
				t.Fatalf("request cancellation: %v", err)
			}
			if !dto.CancelAtPeriodEnd {
				t.Fatal("expected cancel_at_period_end to be set")
			}
			if dto.Status != status {
				t.Fatalf("cancellation must not change status, got %s", dto.Status)
			}
			if len(repo.cancelCalls) != 1 {
				t.Fatalf("expected one cancel call, got %d", len(repo.cancelCalls))
			}
		})
	}
}

func TestListMembersRejectsUnknownStatus(t *testing.T) {
	svc, _ := NewService(newFakeMembershipsRepo())
	_, err := svc.ListMembers(context.Background(), "suspended")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
}

func TestListMembersFiltersByStatus(t *testing.T) {
	repo := newFakeMembershipsRepo()
	repo.roster = []MemberRosterItem{
		{MembershipDTO: MembershipDTO{Status: enums.MembershipStatusActive}, Email: "a@club.test"},
		{MembershipDTO: MembershipDTO{Status: enums.MembershipStatusPastDue}, Email: "b@club.test"},
	}

	svc, _ := NewService(repo)
	items, err := svc.ListMembers(context.Background(), "active")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(items) != 1 || items[0].Email != "a@club.test" {
		t.Fatalf("unexpected filter result: %+v", items)
	}
}
