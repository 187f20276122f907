// Package validation adapts go-playground/validator output into the
// domain's per-field ValidationError. The stores and the stub server's
// request validator share it so both sides report the same messages.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/peertask/horizon/internal/core/domain"
)

// Fields converts validator output into the domain ValidationError so
// callers can render messages inline per field. Nil and non-validator
// errors pass through untouched.
func Fields(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		fields[field] = message(field, fe)
	}
	return &domain.ValidationError{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
