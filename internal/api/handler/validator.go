package handler

import (
	"github.com/go-playground/validator/v10"

	"github.com/peertask/horizon/internal/pkg/validation"
)

// echoValidator wires go-playground/validator into echo's c.Validate.
// Failures come back as the domain ValidationError, which the central
// error handler renders as a 400 with per-field messages.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validator.New()}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return validation.Fields(ev.v.Struct(i))
}
