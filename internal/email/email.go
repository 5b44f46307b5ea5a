// Package email renders storefront notifications and hands them to a
// delivery provider.
package email

import "context"

// Email is a single rendered message ready for delivery.
type Email struct {
	To       []string
	From     string // "Name <address>"; senders fall back to their own default
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Sender delivers a rendered email. Implementations return the provider's
// message id when one exists.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// Provider names accepted by EMAIL_PROVIDER.
const (
	ProviderLog      = "log"
	ProviderSMTP     = "smtp"
	ProviderPostmark = "postmark"
)
