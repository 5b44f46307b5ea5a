package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/lavka/internal/domain"
)

// emailPattern is deliberately loose: something@something.something with no spaces.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var quantityMessage = fmt.Sprintf("must be between 1 and %d", domain.MaxLineQuantity)

func validQuantity(q int) bool {
	return q >= 1 && q <= domain.MaxLineQuantity
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("email_strict", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("line_quantity", func(fl validator.FieldLevel) bool {
		return validQuantity(int(fl.Field().Int()))
	})

	return v
}

// validateStruct runs struct tag validation and converts failures into a
// ValidationError keyed by JSON path (e.g. "customer.email", "items[0].quantity").
func validateStruct(v *validator.Validate, op string, s any) *domain.ValidationError {
	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}

	err := v.Struct(s)
	if err == nil {
		return ve
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Fields["request"] = err.Error()
		return ve
	}

	for _, fe := range fieldErrs {
		ve.Fields[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return ve
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Slice {
			return "at least one is required"
		}
		return "is required"
	case "email_strict":
		return "must be a valid email address"
	case "line_quantity":
		return quantityMessage
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		switch fe.Param() {
		case dateLayout:
			return "must be a date in YYYY-MM-DD format"
		case timeLayout:
			return "must be a time in HH:MM format"
		}
		return fmt.Sprintf("must match %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
