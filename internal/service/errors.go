package service

import (
	"fmt"

	"github.com/dukerupert/lavka/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrOrderNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrBookingNotFound = domain.Errorf(domain.ENOTFOUND, "", "Booking not found")
)

// Request errors - use domain.EINVALID
var (
	ErrInvalidReference = domain.Errorf(domain.EINVALID, "", "Invalid reference format")
	ErrEmptyCart        = domain.Errorf(domain.EINVALID, "", "Cart is empty")
)

// NotificationError records one failed notification send. It never fails a
// submission; it only turns a success into a degraded success.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
