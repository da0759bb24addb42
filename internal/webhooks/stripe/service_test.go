package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/internal/users"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubIdempotencyStore struct {
	keys map[string]bool
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: map[string]bool{}}
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if s.keys[key] {
		return "1", nil
	}
	return "", errors.New("missing key")
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

type stubUserStore struct {
	byEmail map[string]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byEmail: map[string]*models.User{}}
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[dto.Email] = user
	return user, nil
}

type stubMembershipStore struct {
	bySubscription map[string]*models.Membership
}

func newStubMembershipStore() *stubMembershipStore {
	return &stubMembershipStore{bySubscription: map[string]*models.Membership{}}
}

func (s *stubMembershipStore) Create(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	membership.ID = uuid.New()
	s.bySubscription[membership.StripeSubscriptionID] = membership
	return membership, nil
}

func (s *stubMembershipStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	if membership, ok := s.bySubscription[subscriptionID]; ok {
		clone := *membership
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMembershipStore) Update(ctx context.Context, membership *models.Membership) error {
	s.bySubscription[membership.StripeSubscriptionID] = membership
	return nil
}

type stubTokenStore struct {
	rows       map[string]string
	collisions int
	inserts    int
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{rows: map[string]string{}}
}

func (s *stubTokenStore) Insert(ctx context.Context, token, identifier string, expiresAt time.Time) error {
	s.inserts++
	if s.collisions > 0 {
		s.collisions--
		return fmt.Errorf(`duplicate key value violates unique constraint %q`, registrationTokenConstraint)
	}
	s.rows[token] = identifier
	return nil
}

type notifierCall struct {
	kind  string
	email string
	extra string
}

type stubNotifier struct {
	calls []notifierCall
}

func (s *stubNotifier) SendWelcome(ctx context.Context, email, registrationToken string) {
	s.calls = append(s.calls, notifierCall{kind: "welcome", email: email, extra: registrationToken})
}

func (s *stubNotifier) SendPaymentSucceeded(ctx context.Context, email string, amountCents int64, currency string) {
	s.calls = append(s.calls, notifierCall{kind: "payment_succeeded", email: email, extra: fmt.Sprintf("%d %s", amountCents, currency)})
}

func (s *stubNotifier) SendPaymentFailed(ctx context.Context, email string) {
	s.calls = append(s.calls, notifierCall{kind: "payment_failed", email: email})
}

func (s *stubNotifier) SendMembershipCancelled(ctx context.Context, email string) {
	s.calls = append(s.calls, notifierCall{kind: "cancelled", email: email})
}

func (s *stubNotifier) SendPlanChanged(ctx context.Context, email, planName string) {
	s.calls = append(s.calls, notifierCall{kind: "plan_changed", email: email, extra: planName})
}

type coordinatorTestSetup struct {
	service     *Service
	userStore   *stubUserStore
	memberships *stubMembershipStore
	tokens      *stubTokenStore
	notifier    *stubNotifier
	idemStore   *stubIdempotencyStore
}

func newCoordinatorTestSetup(t *testing.T) *coordinatorTestSetup {
	t.Helper()
	userStoreStub := newStubUserStore()
	membershipStoreStub := newStubMembershipStore()
	tokenStoreStub := newStubTokenStore()
	notifier := &stubNotifier{}
	idemStore := newStubIdempotencyStore()

	guard, err := NewIdempotencyGuard(idemStore, time.Hour, "stripe-event")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	svc, err := NewService(ServiceParams{
		TransactionRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) userStore {
			return userStoreStub
		},
		MembershipFactory: func(tx *gorm.DB) membershipStore {
			return membershipStoreStub
		},
		TokenRepoFactory: func(tx *gorm.DB) tokenStore {
			return tokenStoreStub
		},
		Notifier:     notifier,
		Guard:        guard,
		Registration: config.RegistrationConfig{TokenTTL: 24 * time.Hour, TokenMaxAttempts: 5},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &coordinatorTestSetup{
		service:     svc,
		userStore:   userStoreStub,
		memberships: membershipStoreStub,
		tokens:      tokenStoreStub,
		notifier:    notifier,
		idemStore:   idemStore,
	}
}

func checkoutEvent(t *testing.T, id, email, subscriptionID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"customer_details": map[string]any{"email": email},
		"customer":         map[string]any{"id": "cus_1"},
		"subscription":     map[string]any{"id": subscriptionID},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   id,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func invoiceEvent(t *testing.T, id string, eventType stripe.EventType, subscriptionID string, periodStart, periodEnd int64) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"amount_paid":  int64(2550),
		"currency":     "usd",
		"period_start": periodStart,
		"period_end":   periodEnd,
	})
	if err != nil {
		t.Fatalf("marshal invoice: %v", err)
	}
	return &stripe.Event{
		ID:   id,
		Type: eventType,
		Data: &stripe.EventData{
			Raw:    raw,
			Object: map[string]any{"subscription": subscriptionID},
		},
	}
}

func subscriptionEvent(t *testing.T, id string, eventType stripe.EventType, body map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	return &stripe.Event{
		ID:   id,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestCheckoutProvisionsUserMembershipAndToken(t *testing.T) {
	setup := newCoordinatorTestSetup(t)

	event := checkoutEvent(t, "evt_1", "New@Club.Test", "sub_1")
	if err := setup.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	user, ok := setup.userStore.byEmail["new@club.test"]
	if !ok {
		t.Fatal("expected user provisioned under the lowercased email")
	}
	if user.IsRegistered() {
		t.Fatal("provisioned user must have no credential")
	}

	membership, ok := setup.memberships.bySubscription["sub_1"]
	if !ok {
		t.Fatal("expected membership for sub_1")
	}
	if membership.Status != enums.MembershipStatusPending {
		t.Fatalf("expected PENDING, got %s", membership.Status)
	}
	if membership.UserID != user.ID {
		t.Fatal("membership not linked to the provisioned user")
	}

	if len(setup.tokens.rows) != 1 {
		t.Fatalf("expected one registration token, got %d", len(setup.tokens.rows))
	}
	if len(setup.notifier.calls) != 1 || setup.notifier.calls[0].kind != "welcome" {
		t.Fatalf("expected one welcome email, got %+v", setup.notifier.calls)
	}
	for token := range setup.tokens.rows {
		if setup.notifier.calls[0].extra != token {
			t.Fatal("welcome email must carry the issued token")
		}
	}
}

type stubSubscriptionFetcher struct {
	sub    *stripe.Subscription
	err    error
	lastID string
	calls  int
}

func (s *stubSubscriptionFetcher) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	s.calls++
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

func TestCheckoutSeedsBoundsFromFetchedSubscription(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &stubSubscriptionFetcher{
		sub: &stripe.Subscription{
			ID: "sub_1",
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{{
					CurrentPeriodStart: start.Unix(),
					CurrentPeriodEnd:   end.Unix(),
					Price:              &stripe.Price{ID: "price_1", Nickname: "Standard"},
				}},
			},
		},
	}
	setup.service.subscriptions = fetcher

	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if fetcher.calls != 1 || fetcher.lastID != "sub_1" {
		t.Fatalf("expected one lookup for sub_1, got %d for %q", fetcher.calls, fetcher.lastID)
	}
	membership := setup.memberships.bySubscription["sub_1"]
	if !membership.CurrentPeriodStart.Equal(start) || !membership.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("expected fetched period bounds, got %s..%s", membership.CurrentPeriodStart, membership.CurrentPeriodEnd)
	}
	if membership.PlanName != "Standard" {
		t.Fatalf("expected plan label from price nickname, got %q", membership.PlanName)
	}
}

func TestCheckoutFallsBackWhenSubscriptionLookupFails(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	setup.service.subscriptions = &stubSubscriptionFetcher{err: errors.New("stripe unavailable")}

	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("lookup failure must not block provisioning: %v", err)
	}

	membership := setup.memberships.bySubscription["sub_1"]
	if membership == nil {
		t.Fatal("expected membership despite failed lookup")
	}
	if !membership.CurrentPeriodStart.Equal(membership.CurrentPeriodEnd) {
		t.Fatal("fallback seeds an empty provisional period")
	}
	if len(setup.tokens.rows) != 1 {
		t.Fatalf("expected a registration token, got %d", len(setup.tokens.rows))
	}
}

func TestCheckoutReplayForKnownSubscriptionIsNoOp(t *testing.T) {
	setup := newCoordinatorTestSetup(t)

	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// Same session content under a fresh event ID, so the Redis guard does
	// not catch it.
	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_2", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(setup.tokens.rows) != 1 {
		t.Fatalf("replay must not issue another token, got %d", len(setup.tokens.rows))
	}
	if len(setup.notifier.calls) != 1 {
		t.Fatalf("replay must not send another welcome email, got %d", len(setup.notifier.calls))
	}
}

func TestDuplicateEventIDShortCircuits(t *testing.T) {
	setup := newCoordinatorTestSetup(t)

	event := checkoutEvent(t, "evt_1", "a@x.com", "sub_1")
	if err := setup.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := setup.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("duplicate delivery: %v", err)
	}
	if len(setup.notifier.calls) != 1 {
		t.Fatalf("duplicate event must not re-run side effects, got %d calls", len(setup.notifier.calls))
	}
}

func TestPaymentSucceededForUnknownSubscriptionReleasesGuard(t *testing.T) {
	setup := newCoordinatorTestSetup(t)

	event := invoiceEvent(t, "evt_9", stripe.EventTypeInvoicePaymentSucceeded, "sub_missing", 100, 200)
	err := setup.service.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	// The guard key must be gone so the provider's retry can reprocess.
	if setup.idemStore.keys["stripe-event:evt_9"] {
		t.Fatal("expected idempotency key release on failure")
	}
}

func TestPaymentFailedKeepsBoundsFromLastSuccess(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).Unix()
	if err := setup.service.HandleEvent(context.Background(), invoiceEvent(t, "evt_2", stripe.EventTypeInvoicePaymentSucceeded, "sub_1", start, end)); err != nil {
		t.Fatalf("payment succeeded: %v", err)
	}
	if err := setup.service.HandleEvent(context.Background(), invoiceEvent(t, "evt_3", stripe.EventTypeInvoicePaymentFailed, "sub_1", 0, 0)); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	membership := setup.memberships.bySubscription["sub_1"]
	if membership.Status != enums.MembershipStatusPastDue {
		t.Fatalf("expected PAST_DUE, got %s", membership.Status)
	}
	if membership.CurrentPeriodEnd.Unix() != end {
		t.Fatal("failed payment must not overwrite period bounds")
	}

	last := setup.notifier.calls[len(setup.notifier.calls)-1]
	if last.kind != "payment_failed" || last.email != "a@x.com" {
		t.Fatalf("expected payment-failed email, got %+v", last)
	}
}

func TestSubscriptionDeletedCancelsMembership(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	event := subscriptionEvent(t, "evt_2", stripe.EventTypeCustomerSubscriptionDeleted, map[string]any{
		"id": "sub_1",
	})
	if err := setup.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("subscription deleted: %v", err)
	}

	if setup.memberships.bySubscription["sub_1"].Status != enums.MembershipStatusCancelled {
		t.Fatal("expected CANCELLED status")
	}
	last := setup.notifier.calls[len(setup.notifier.calls)-1]
	if last.kind != "cancelled" {
		t.Fatalf("expected cancellation email, got %+v", last)
	}
}

func TestSubscriptionUpdatedEmailsOnlyOnPlanChange(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	update := func(id, plan, status string) *stripe.Event {
		return subscriptionEvent(t, id, stripe.EventTypeCustomerSubscriptionUpdated, map[string]any{
			"id":     "sub_1",
			"status": status,
			"items": map[string]any{
				"data": []map[string]any{{
					"price":                map[string]any{"id": "price_1", "nickname": plan},
					"current_period_start": 100,
					"current_period_end":   200,
				}},
			},
		})
	}

	// First update fills in the initially empty plan label; no email yet.
	if err := setup.service.HandleEvent(context.Background(), update("evt_2", "Standard", "active")); err != nil {
		t.Fatalf("first update: %v", err)
	}
	for _, call := range setup.notifier.calls {
		if call.kind == "plan_changed" {
			t.Fatal("setting the initial plan label must not email")
		}
	}
	membership := setup.memberships.bySubscription["sub_1"]
	if membership.Status != enums.MembershipStatusActive {
		t.Fatalf("expected ACTIVE after upstream active status, got %s", membership.Status)
	}
	if membership.PlanName != "Standard" {
		t.Fatalf("expected plan label refresh, got %q", membership.PlanName)
	}

	// Same plan again: still no email.
	if err := setup.service.HandleEvent(context.Background(), update("evt_3", "Standard", "active")); err != nil {
		t.Fatalf("second update: %v", err)
	}
	for _, call := range setup.notifier.calls {
		if call.kind == "plan_changed" {
			t.Fatal("unchanged plan label must not email")
		}
	}

	// A real plan change emails exactly once.
	if err := setup.service.HandleEvent(context.Background(), update("evt_4", "Premium", "past_due")); err != nil {
		t.Fatalf("third update: %v", err)
	}
	changed := 0
	for _, call := range setup.notifier.calls {
		if call.kind == "plan_changed" {
			changed++
			if call.extra != "Premium" {
				t.Fatalf("expected new plan name in email, got %q", call.extra)
			}
		}
	}
	if changed != 1 {
		t.Fatalf("expected exactly one plan-changed email, got %d", changed)
	}

	// Non-active upstream status retains the prior stored status.
	if setup.memberships.bySubscription["sub_1"].Status != enums.MembershipStatusActive {
		t.Fatal("non-active upstream status must not change the stored status")
	}
}

func TestTokenIssuanceRetriesCollisionsThenFails(t *testing.T) {
	setup := newCoordinatorTestSetup(t)
	setup.tokens.collisions = 2

	if err := setup.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "a@x.com", "sub_1")); err != nil {
		t.Fatalf("expected retries to absorb collisions: %v", err)
	}
	if setup.tokens.inserts != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", setup.tokens.inserts)
	}

	setup2 := newCoordinatorTestSetup(t)
	setup2.tokens.collisions = 10

	err := setup2.service.HandleEvent(context.Background(), checkoutEvent(t, "evt_1", "b@x.com", "sub_2"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL after exhausting attempts, got %v", err)
	}
}

func TestUnhandledEventTypesAreIgnored(t *testing.T) {
	setup := newCoordinatorTestSetup(t)

	event := &stripe.Event{
		ID:   "evt_x",
		Type: stripe.EventType("charge.refunded"),
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := setup.service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled event must be accepted: %v", err)
	}
	if len(setup.notifier.calls) != 0 {
		t.Fatal("unhandled event must have no side effects")
	}
}
