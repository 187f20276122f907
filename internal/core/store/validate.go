package store

import (
	"github.com/go-playground/validator/v10"

	"github.com/peertask/horizon/internal/pkg/validation"
)

// validate is shared by all stores; validator.Validate is safe for
// concurrent use.
var validate = validator.New()

// fieldErrors converts validator output into the domain ValidationError
// so callers can render messages inline per field.
func fieldErrors(err error) error {
	return validation.Fields(err)
}
