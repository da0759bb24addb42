package memberships

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
)

func setupMembershipsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT
);`
	memberships := `
CREATE TABLE IF NOT EXISTS memberships (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  plan_name TEXT NOT NULL,
  stripe_customer_id TEXT NOT NULL,
  stripe_subscription_id TEXT NOT NULL UNIQUE,
  current_period_start DATETIME NOT NULL,
  current_period_end DATETIME NOT NULL,
  cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{users, memberships} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	// the shared in-memory database survives between tests
	for _, table := range []string{"memberships", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return db
}

func seedMembership(t *testing.T, repo *Repository, userID uuid.UUID, status enums.MembershipStatus, periodEnd time.Time) *models.Membership {
	t.Helper()
	membership := &models.Membership{
		ID:                   uuid.New(),
		UserID:               userID,
		Status:               status,
		PlanName:             "Standard",
		StripeCustomerID:     "cus_" + uuid.NewString(),
		StripeSubscriptionID: "sub_" + uuid.NewString(),
		CurrentPeriodStart:   periodEnd.Add(-30 * 24 * time.Hour),
		CurrentPeriodEnd:     periodEnd,
	}
	created, err := repo.Create(context.Background(), membership)
	if err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return created
}

func TestRepositoryFindByUserIDReturnsLatest(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	older := seedMembership(t, repo, userID, enums.MembershipStatusExpired, time.Now().Add(-40*24*time.Hour))
	backdated := time.Now().Add(-60 * 24 * time.Hour)
	err := db.Model(&models.Membership{}).
		Where("id = ?", older.ID).
		UpdateColumn("created_at", backdated).Error
	if err != nil {
		t.Fatalf("backdate membership: %v", err)
	}
	latest := seedMembership(t, repo, userID, enums.MembershipStatusActive, time.Now().Add(20*24*time.Hour))

	found, err := repo.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if found.ID != latest.ID {
		t.Fatalf("expected latest membership %s, got %s", latest.ID, found.ID)
	}
}

func TestRepositoryFindBySubscriptionID(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)

	created := seedMembership(t, repo, uuid.New(), enums.MembershipStatusActive, time.Now().Add(20*24*time.Hour))

	found, err := repo.FindBySubscriptionID(context.Background(), created.StripeSubscriptionID)
	if err != nil {
		t.Fatalf("find by subscription: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, found.ID)
	}

	if _, err := repo.FindBySubscriptionID(context.Background(), "sub_missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRepositoryCreateRejectsInvalidStatus(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Create(context.Background(), &models.Membership{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: enums.MembershipStatus("bogus"),
	})
	if err == nil {
		t.Fatal("expected invalid status error")
	}
}

func TestRepositorySetCancelAtPeriodEnd(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)

	created := seedMembership(t, repo, uuid.New(), enums.MembershipStatusActive, time.Now().Add(20*24*time.Hour))

	if err := repo.SetCancelAtPeriodEnd(context.Background(), created.ID, true); err != nil {
		t.Fatalf("set cancel flag: %v", err)
	}

	found, err := repo.FindBySubscriptionID(context.Background(), created.StripeSubscriptionID)
	if err != nil {
		t.Fatalf("reload membership: %v", err)
	}
	if !found.CancelAtPeriodEnd {
		t.Fatal("expected cancel_at_period_end to be set")
	}
}

func TestRepositoryListLapsedAndMarkExpired(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)
	cutoff := time.Now().Add(-24 * time.Hour)

	lapsedActive := seedMembership(t, repo, uuid.New(), enums.MembershipStatusActive, cutoff.Add(-time.Hour))
	lapsedPastDue := seedMembership(t, repo, uuid.New(), enums.MembershipStatusPastDue, cutoff.Add(-48*time.Hour))
	// pending rows and current periods stay untouched
	seedMembership(t, repo, uuid.New(), enums.MembershipStatusPending, cutoff.Add(-time.Hour))
	seedMembership(t, repo, uuid.New(), enums.MembershipStatusActive, time.Now().Add(20*24*time.Hour))

	statuses := []enums.MembershipStatus{enums.MembershipStatusActive, enums.MembershipStatusPastDue, enums.MembershipStatusCancelled}
	lapsed, err := repo.ListLapsed(context.Background(), statuses, cutoff)
	if err != nil {
		t.Fatalf("list lapsed: %v", err)
	}
	if len(lapsed) != 2 {
		t.Fatalf("expected 2 lapsed memberships, got %d", len(lapsed))
	}

	ids := []uuid.UUID{lapsedActive.ID, lapsedPastDue.ID}
	expired, err := repo.MarkExpired(context.Background(), ids)
	if err != nil {
		t.Fatalf("mark expired: %v", err)
	}
	if expired != 2 {
		t.Fatalf("expected 2 rows expired, got %d", expired)
	}

	for _, sub := range []string{lapsedActive.StripeSubscriptionID, lapsedPastDue.StripeSubscriptionID} {
		found, err := repo.FindBySubscriptionID(context.Background(), sub)
		if err != nil {
			t.Fatalf("reload membership: %v", err)
		}
		if found.Status != enums.MembershipStatusExpired {
			t.Fatalf("expected expired status, got %s", found.Status)
		}
	}
}

func TestRepositoryListWithUsersFiltersByStatus(t *testing.T) {
	db := setupMembershipsTestDB(t)
	repo := NewRepository(db)

	activeUser := uuid.New()
	pendingUser := uuid.New()
	name := "Robin Vega"
	if err := db.Exec("INSERT INTO users (id, email, name) VALUES (?, ?, ?)", activeUser, "robin@example.com", name).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := db.Exec("INSERT INTO users (id, email, name) VALUES (?, ?, NULL)", pendingUser, "casey@example.com").Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}

	seedMembership(t, repo, activeUser, enums.MembershipStatusActive, time.Now().Add(20*24*time.Hour))
	seedMembership(t, repo, pendingUser, enums.MembershipStatusPending, time.Now().Add(20*24*time.Hour))

	all, err := repo.ListWithUsers(context.Background(), nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 roster items, got %d", len(all))
	}

	active := enums.MembershipStatusActive
	filtered, err := repo.ListWithUsers(context.Background(), &active)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 active roster item, got %d", len(filtered))
	}
	if filtered[0].Email != "robin@example.com" {
		t.Fatalf("unexpected email %s", filtered[0].Email)
	}
	if filtered[0].Name == nil || *filtered[0].Name != name {
		t.Fatalf("unexpected name %+v", filtered[0].Name)
	}
}
