// Package validation wires go-playground/validator into echo as the
// request body validator.
package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/clipvault/clipvault/common/clerr"
)

// RequestValidator validates bound request bodies against their struct tags
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new request validator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate implements echo.Validator. Failures surface as invalid input so
// the HTTP error mapper turns them into 400s.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return clerr.Invalidf("%v", err)
	}
	return nil
}
