package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogSender writes emails to the logger instead of delivering them.
// Used in development and when no provider is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the email and returns a random message id.
func (l *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipients
	}

	id := uuid.NewString()
	l.logger.InfoContext(ctx, "email (not delivered)",
		"message_id", id,
		"to", email.To,
		"from", email.From,
		"subject", email.Subject,
		"body", email.TextBody,
	)
	return id, nil
}
