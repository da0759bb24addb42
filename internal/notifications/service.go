package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/mailer"
)

// Service sends the transactional emails the billing lifecycle produces. All
// sends are best-effort: delivery failures are logged, never propagated, so a
// missed email cannot fail a committed state transition.
type Service interface {
	SendWelcome(ctx context.Context, email, registrationToken string)
	SendPaymentSucceeded(ctx context.Context, email string, amountCents int64, currency string)
	SendPaymentFailed(ctx context.Context, email string)
	SendMembershipCancelled(ctx context.Context, email string)
	SendPlanChanged(ctx context.Context, email, planName string)
}

type service struct {
	mailer  mailer.Mailer
	appURL  string
	appName string
	logg    *logger.Logger
}

// ServiceParams configures the notification service.
type ServiceParams struct {
	Mailer  mailer.Mailer
	AppURL  string
	AppName string
	Logger  *logger.Logger
}

// NewService wires the notifications dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.AppURL == "" {
		return nil, fmt.Errorf("app url required")
	}
	appName := params.AppName
	if appName == "" {
		appName = "the club"
	}
	return &service{
		mailer:  params.Mailer,
		appURL:  strings.TrimSuffix(params.AppURL, "/"),
		appName: appName,
		logg:    params.Logger,
	}, nil
}

func (s *service) SendWelcome(ctx context.Context, email, registrationToken string) {
	link := fmt.Sprintf("%s/register?token=%s", s.appURL, url.QueryEscape(registrationToken))
	subject := fmt.Sprintf("Welcome to %s — complete your registration", s.appName)
	text := fmt.Sprintf(
		"Thanks for joining %s!\n\nFinish setting up your account here:\n%s\n\nThe link expires in 24 hours.",
		s.appName, link,
	)
	html := fmt.Sprintf(
		"<p>Thanks for joining %s!</p><p><a href=%q>Complete your registration</a></p><p>The link expires in 24 hours.</p>",
		s.appName, link,
	)
	s.send(ctx, email, subject, html, text)
}

func (s *service) SendPaymentSucceeded(ctx context.Context, email string, amountCents int64, currency string) {
	amount := formatAmount(amountCents, currency)
	subject := "Payment received"
	text := fmt.Sprintf("We received your membership payment of %s. Thank you!", amount)
	html := fmt.Sprintf("<p>We received your membership payment of <strong>%s</strong>. Thank you!</p>", amount)
	s.send(ctx, email, subject, html, text)
}

func (s *service) SendPaymentFailed(ctx context.Context, email string) {
	subject := "Membership payment failed"
	text := "Your latest membership payment did not go through. Please update your payment method to keep your membership active."
	html := "<p>Your latest membership payment did not go through. Please update your payment method to keep your membership active.</p>"
	s.send(ctx, email, subject, html, text)
}

func (s *service) SendMembershipCancelled(ctx context.Context, email string) {
	subject := "Membership cancelled"
	text := fmt.Sprintf("Your %s membership has been cancelled. We're sorry to see you go.", s.appName)
	html := fmt.Sprintf("<p>Your %s membership has been cancelled. We're sorry to see you go.</p>", s.appName)
	s.send(ctx, email, subject, html, text)
}

func (s *service) SendPlanChanged(ctx context.Context, email, planName string) {
	subject := "Membership plan updated"
	text := fmt.Sprintf("Your membership plan is now %q.", planName)
	html := fmt.Sprintf("<p>Your membership plan is now <strong>%s</strong>.</p>", planName)
	s.send(ctx, email, subject, html, text)
}

func (s *service) send(ctx context.Context, to, subject, html, text string) {
	if err := s.mailer.Send(ctx, to, subject, html, text); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "subject", subject)
		s.logg.Error(ctx, "failed to send notification email", err)
	}
}

func formatAmount(amountCents int64, currency string) string {
	amount := decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100))
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}
	return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
}
