package service

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// Reference formats.
var (
	OrderReferencePattern   = regexp.MustCompile(`^\d{6}$`)
	BookingReferencePattern = regexp.MustCompile(`^BK-\d{5}$`)
)

// ReferenceGenerator issues customer-facing reference codes.
// Codes are format-valid but only probabilistically unique; callers must
// not use them as keys.
type ReferenceGenerator interface {
	OrderReference() string
	BookingReference() string
}

// RandomReferences draws references from math/rand/v2.
type RandomReferences struct{}

// OrderReference returns a 6-digit code in 100000–999999.
func (RandomReferences) OrderReference() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// BookingReference returns "BK-" and a 5-digit code in 10000–99999.
func (RandomReferences) BookingReference() string {
	return fmt.Sprintf("BK-%05d", 10000+rand.IntN(90000))
}
