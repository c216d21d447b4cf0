package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// EmailConfig holds the Postmark credentials and sender identity for the
// email alert channel.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"ALERT_SENDER_EMAIL,required"`
}

// OwnerEmailResolver maps an owner to the address that receives their alerts.
type OwnerEmailResolver func(ctx context.Context, ownerID string) (string, error)

// emailSender is the slice of the Postmark client the notifier uses,
// extracted for testing.
type emailSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// EmailNotifier delivers terminal-failure alerts to the owner's inbox through
// Postmark's transactional API.
type EmailNotifier struct {
	client  emailSender
	from    string
	resolve OwnerEmailResolver
}

// NewEmailNotifier creates the email channel. Both tokens are required;
// missing credentials fail at construction rather than at the first alert.
func NewEmailNotifier(cfg EmailConfig, resolve OwnerEmailResolver) (*EmailNotifier, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: postmark tokens are required", ErrInvalidEmailConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidEmailConfig)
	}
	if resolve == nil {
		return nil, fmt.Errorf("%w: owner email resolver is required", ErrInvalidEmailConfig)
	}

	return &EmailNotifier{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.SenderEmail,
		resolve: resolve,
	}, nil
}

// Notify implements Notifier.
func (n *EmailNotifier) Notify(ctx context.Context, alert Alert) error {
	to, err := n.resolve(ctx, alert.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to resolve alert address for owner %q: %w", alert.OwnerID, err)
	}

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.from,
		To:       to,
		Subject:  subjectFor(alert),
		TextBody: bodyFor(alert),
		Tag:      "retry-alert",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendAlert, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendAlert,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func subjectFor(alert Alert) string {
	if alert.Status == "blocked" {
		return fmt.Sprintf("Action skipped: %s was blocked by policy", alert.Kind)
	}
	return fmt.Sprintf("Action needed: %s could not be completed", alert.Kind)
}

func bodyFor(alert Alert) string {
	return fmt.Sprintf(
		"The %s operation %s stopped after %d attempt(s).\n\nStatus: %s\nReason: %s\nTime: %s\n",
		alert.Kind, alert.OperationID, alert.AttemptCount, alert.Status, alert.Reason,
		alert.At.Format("2006-01-02 15:04:05 MST"),
	)
}
