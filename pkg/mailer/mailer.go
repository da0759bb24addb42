package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/mfigueroa-dev/clubcore-backend/pkg/config"
	"github.com/mfigueroa-dev/clubcore-backend/pkg/logger"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// New creates a mailer from config. Provider "ses" uses AWS SES; "noop" or
// unknown logs instead of sending.
func New(cfg config.SESConfig, logg *logger.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "ses":
		if cfg.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer requires a from address")
		}
		awsCfg := aws.Config{
			Region: cfg.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		}
		return &sesMailer{
			client:      ses.NewFromConfig(awsCfg),
			fromAddress: cfg.FromAddress,
			fromName:    cfg.FromName,
			logg:        logg,
		}, nil
	case "noop":
		return &noopMailer{logg: logg}, nil
	default:
		if logg != nil {
			ctx := logg.WithField(context.Background(), "provider", cfg.Provider)
			logg.Warn(ctx, "unknown email provider, using noop")
		}
		return &noopMailer{logg: logg}, nil
	}
}

type sesMailer struct {
	client      *ses.Client
	fromAddress string
	fromName    string
	logg        *logger.Logger
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	source := s.fromAddress
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(html),
			Charset: aws.String("UTF-8"),
		}
	}
	if text != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(text),
			Charset: aws.String("UTF-8"),
		}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("sending email via ses: %w", err)
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"to":         to,
			"message_id": aws.ToString(result.MessageId),
		})
		s.logg.Info(ctx, "email sent")
	}
	return nil
}

type noopMailer struct {
	logg *logger.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{
			"to":      to,
			"subject": subject,
		})
		n.logg.Info(ctx, "email suppressed (noop mailer)")
	}
	return nil
}
