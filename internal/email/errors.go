package email

import (
	"fmt"

	"github.com/dukerupert/lavka/internal/domain"
)

var (
	// ErrNoRecipients is returned when an email has no To address.
	ErrNoRecipients = domain.Errorf(domain.EINVALID, "email.send", "Email has no recipients")

	// ErrNoOperatorAddress is returned when operator alerts are sent
	// without a configured operator address.
	ErrNoOperatorAddress = domain.Errorf(domain.EINVALID, "email.operator", "Operator email address is not configured")
)

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(name string) error {
	return domain.Errorf(domain.ENOTFOUND, "email.render", "Email template %s not found", name)
}

// ProviderError is a non-success answer from a delivery API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error %d (status %d): %s", e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}
