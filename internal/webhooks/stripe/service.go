package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mfigueroa-dev/clubcore-backend/internal/memberships"
	"github.com/mfigueroa-dev/clubcore-backend/internal/notifications"
	"github.com/mfigueroa-dev/clubcore-backend/internal/tokens"
	"github.com/mfigueroa-dev/clubcore-backend/internal/users"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	pkgdb "github.com/mfigueroa-dev/clubcore-backend/pkg/db"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/db/models"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa-dev/clubcore-backend/pkg/errors"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

const registrationTokenConstraint = "registration_tokens_pkey"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type membershipStore interface {
	Create(ctx context.Context, membership *models.Membership) (*models.Membership, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Membership, error)
	Update(ctx context.Context, membership *models.Membership) error
}

type tokenStore interface {
	Insert(ctx context.Context, token, identifier string, expiresAt time.Time) error
}

func defaultUserStore(tx *gorm.DB) userStore {
	return users.NewRepository(tx)
}

func defaultMembershipStore(tx *gorm.DB) membershipStore {
	return memberships.NewRepository(tx)
}

func defaultTokenStore(tx *gorm.DB) tokenStore {
	return tokens.NewRepository(tx)
}

// subscriptionFetcher looks up the live subscription so a freshly checked-out
// membership can be seeded with real billing bounds and plan label.
type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

// ServiceParams configures the lifecycle coordinator. The repo factories bind
// repositories to the transaction each event runs in; leaving one nil uses the
// real repository for that store.
type ServiceParams struct {
	TransactionRunner txRunner
	UserRepoFactory   func(tx *gorm.DB) userStore
	MembershipFactory func(tx *gorm.DB) membershipStore
	TokenRepoFactory  func(tx *gorm.DB) tokenStore
	Notifier          notifications.Service
	Guard             *IdempotencyGuard
	Registration      config.RegistrationConfig
	Logger            *logger.Logger
	// Optional. When set, checkout provisioning seeds period bounds and plan
	// label from the live subscription instead of placeholders.
	Subscriptions subscriptionFetcher
}

// Service applies billing events to the membership ledger. Each event runs in
// one DB transaction; notifications are dispatched only after it commits.
type Service struct {
	txRunner        txRunner
	userRepos       func(tx *gorm.DB) userStore
	membershipRepos func(tx *gorm.DB) membershipStore
	tokenRepos      func(tx *gorm.DB) tokenStore
	notifier        notifications.Service
	guard           *IdempotencyGuard
	registration    config.RegistrationConfig
	logg            *logger.Logger
	subscriptions   subscriptionFetcher

	newToken func() string
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	userRepos := params.UserRepoFactory
	if userRepos == nil {
		userRepos = defaultUserStore
	}
	membershipRepos := params.MembershipFactory
	if membershipRepos == nil {
		membershipRepos = defaultMembershipStore
	}
	tokenRepos := params.TokenRepoFactory
	if tokenRepos == nil {
		tokenRepos = defaultTokenStore
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	return &Service{
		txRunner:        params.TransactionRunner,
		userRepos:       userRepos,
		membershipRepos: membershipRepos,
		tokenRepos:      tokenRepos,
		notifier:        params.Notifier,
		guard:           params.Guard,
		registration:    params.Registration,
		logg:            params.Logger,
		subscriptions:   params.Subscriptions,
		newToken:        uuid.NewString,
		now:             time.Now,
	}, nil
}

// HandleEvent deduplicates and dispatches one webhook event. Unrecognized
// event types are accepted and ignored so the provider stops redelivering.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	duplicate, err := s.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if duplicate {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "duplicate stripe event ignored")
		}
		return nil
	}

	notify, err := s.process(ctx, event)
	if err != nil {
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, "failed to release idempotency key", delErr)
		}
		return err
	}
	for _, send := range notify {
		send()
	}
	return nil
}

// process applies the event and returns the notification sends to run after
// the transaction has committed.
func (s *Service) process(ctx context.Context, event *stripe.Event) ([]func(), error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoice(ctx, event, true)
	case stripe.EventTypeInvoicePaymentFailed:
		return s.handleInvoice(ctx, event, false)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	default:
		return nil, nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) ([]func(), error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}

	email := buyerEmail(&session)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session has no customer email")
	}
	subscriptionID := checkoutSubscriptionID(&session)
	if subscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session has no subscription")
	}

	// Seed real billing bounds and plan label from the live subscription when
	// a fetcher is wired; the first invoice corrects the fallback seeds.
	plan := session.Metadata["plan_name"]
	periodStart := s.now().UTC()
	periodEnd := periodStart
	if s.subscriptions != nil {
		sub, err := s.subscriptions.GetSubscription(ctx, subscriptionID)
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "subscription_id", subscriptionID), "subscription lookup failed; seeding provisional period")
			}
		} else {
			if name := planName(sub); name != "" {
				plan = name
			}
			if start, end, ok := subscriptionPeriod(sub); ok {
				periodStart = start
				periodEnd = end
			}
		}
	}

	var token string
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		membershipRepo := s.membershipRepos(tx)
		tokenRepo := s.tokenRepos(tx)

		// A replayed checkout for a subscription we already track is a no-op.
		if _, err := membershipRepo.FindBySubscriptionID(ctx, subscriptionID); err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup membership")
		}

		user, err := userRepo.FindByEmail(ctx, email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user, err = userRepo.Create(ctx, users.CreateUserDTO{
				Email: email,
				Role:  enums.UserRoleMember,
			})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision user")
		}

		membership := &models.Membership{
			UserID:               user.ID,
			Status:               enums.MembershipStatusPending,
			PlanName:             plan,
			StripeCustomerID:     checkoutCustomerID(&session),
			StripeSubscriptionID: subscriptionID,
			CurrentPeriodStart:   periodStart,
			CurrentPeriodEnd:     periodEnd,
		}
		if _, err := membershipRepo.Create(ctx, membership); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}

		token, err = s.issueRegistrationToken(ctx, tokenRepo, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	return []func(){func() { s.notifier.SendWelcome(ctx, email, token) }}, nil
}

func (s *Service) handleInvoice(ctx context.Context, event *stripe.Event, succeeded bool) ([]func(), error) {
	subscriptionID := invoiceSubscriptionID(event)
	if subscriptionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice event has no subscription id")
	}

	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode invoice")
	}

	var email string
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		membershipRepo := s.membershipRepos(tx)
		membership, err := s.correlate(ctx, membershipRepo, subscriptionID)
		if err != nil {
			return err
		}

		if succeeded {
			membership.Status = enums.MembershipStatusActive
			if invoice.PeriodStart > 0 {
				membership.CurrentPeriodStart = time.Unix(invoice.PeriodStart, 0).UTC()
			}
			if invoice.PeriodEnd > 0 {
				membership.CurrentPeriodEnd = time.Unix(invoice.PeriodEnd, 0).UTC()
			}
		} else {
			membership.Status = enums.MembershipStatusPastDue
		}
		if err := membershipRepo.Update(ctx, membership); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
		}

		email, err = s.memberEmail(ctx, tx, membership.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if succeeded {
		amount := invoice.AmountPaid
		currency := string(invoice.Currency)
		return []func(){func() { s.notifier.SendPaymentSucceeded(ctx, email, amount, currency) }}, nil
	}
	return []func(){func() { s.notifier.SendPaymentFailed(ctx, email) }}, nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) ([]func(), error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription")
	}

	var email string
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		membershipRepo := s.membershipRepos(tx)
		membership, err := s.correlate(ctx, membershipRepo, sub.ID)
		if err != nil {
			return err
		}
		membership.Status = enums.MembershipStatusCancelled
		if err := membershipRepo.Update(ctx, membership); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
		}
		email, err = s.memberEmail(ctx, tx, membership.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return []func(){func() { s.notifier.SendMembershipCancelled(ctx, email) }}, nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) ([]func(), error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription")
	}

	var email string
	planChanged := false
	newPlan := planName(&sub)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		membershipRepo := s.membershipRepos(tx)
		membership, err := s.correlate(ctx, membershipRepo, sub.ID)
		if err != nil {
			return err
		}

		if newPlan != "" && newPlan != membership.PlanName {
			planChanged = membership.PlanName != ""
			membership.PlanName = newPlan
		}
		if start, end, ok := subscriptionPeriod(&sub); ok {
			membership.CurrentPeriodStart = start
			membership.CurrentPeriodEnd = end
		}
		membership.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		// Only the processor's own "active" flips the status; anything else
		// leaves the prior state in place for the invoice events to settle.
		if sub.Status == stripe.SubscriptionStatusActive {
			membership.Status = enums.MembershipStatusActive
		}
		if err := membershipRepo.Update(ctx, membership); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
		}
		email, err = s.memberEmail(ctx, tx, membership.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !planChanged {
		return nil, nil
	}
	return []func(){func() { s.notifier.SendPlanChanged(ctx, email, newPlan) }}, nil
}

// correlate resolves the ledger row for a subscription. Absence is surfaced
// as NOT_FOUND so the provider keeps redelivering until checkout lands.
func (s *Service) correlate(ctx context.Context, repo membershipStore, subscriptionID string) (*models.Membership, error) {
	membership, err := repo.FindBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no membership for subscription")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup membership")
	}
	return membership, nil
}

func (s *Service) memberEmail(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (string, error) {
	user, err := s.userRepos(tx).FindByID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup member")
	}
	return user.Email, nil
}

// issueRegistrationToken inserts a fresh token, retrying on the unlikely
// primary key collision up to the configured attempt limit.
func (s *Service) issueRegistrationToken(ctx context.Context, repo tokenStore, email string) (string, error) {
	expiresAt := s.now().UTC().Add(s.registration.TokenTTL)
	attempts := s.registration.TokenMaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	for i := 0; i < attempts; i++ {
		candidate := s.newToken()
		err := repo.Insert(ctx, candidate, email, expiresAt)
		if err == nil {
			return candidate, nil
		}
		if !pkgdb.IsUniqueViolation(err, registrationTokenConstraint) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store registration token")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not issue a unique registration token")
}

func buyerEmail(session *stripe.CheckoutSession) string {
	email := ""
	if session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		email = session.CustomerEmail
	}
	return strings.ToLower(strings.TrimSpace(email))
}

func checkoutSubscriptionID(session *stripe.CheckoutSession) string {
	if session.Subscription == nil {
		return ""
	}
	return session.Subscription.ID
}

func checkoutCustomerID(session *stripe.CheckoutSession) string {
	if session.Customer == nil {
		return ""
	}
	return session.Customer.ID
}

func invoiceSubscriptionID(event *stripe.Event) string {
	if id := event.GetObjectValue("subscription"); id != "" {
		return id
	}
	return event.GetObjectValue("parent", "subscription_details", "subscription")
}

func planName(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	price := sub.Items.Data[0].Price
	if price == nil {
		return ""
	}
	if price.Nickname != "" {
		return price.Nickname
	}
	return price.ID
}

func subscriptionPeriod(sub *stripe.Subscription) (time.Time, time.Time, bool) {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return time.Time{}, time.Time{}, false
	}
	item := sub.Items.Data[0]
	if item.CurrentPeriodStart <= 0 || item.CurrentPeriodEnd <= 0 {
		return time.Time{}, time.Time{}, false
	}
	return time.Unix(item.CurrentPeriodStart, 0).UTC(), time.Unix(item.CurrentPeriodEnd, 0).UTC(), true
}
