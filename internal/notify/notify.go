// Package notify delivers account emails (verification, password reset).
// Delivery is either logged locally or handed to RabbitMQ for a mail worker.
package notify

import (
	"context"

	"financially/internal/logger"
)

// Kind identifies the email template.
type Kind string

const (
	KindVerifyEmail   Kind = "verify_email"
	KindPasswordReset Kind = "password_reset"
)

// Email is an outgoing message. Link carries the one-time URL the user follows.
type Email struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject"`
	Link    string `json:"link"`
}

// Notifier sends emails.
type Notifier interface {
	Send(ctx context.Context, email Email) error
	Close() error
}

// LogNotifier writes emails to the application log instead of sending them.
type LogNotifier struct{}

// NewLogNotifier returns a Notifier for local development.
func NewLogNotifier() Notifier { return LogNotifier{} }

func (LogNotifier) Send(ctx context.Context, email Email) error {
	logger.FromContext(ctx).Infow("email",
		"kind", email.Kind,
		"to", email.To,
		"subject", email.Subject,
		"link", email.Link,
	)
	return nil
}

func (LogNotifier) Close() error { return nil }
