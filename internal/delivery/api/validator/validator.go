// Package validator adapts the shared validation rules to echo.Validator.
package validator

import (
	"healthtrack/internal/validation"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New builds the echo validator on top of the shared rule set.
func New() *CustomValidator {
	return &CustomValidator{validate: validation.New()}
}

// Validate reports failures as the domain validation error so the error
// middleware renders them with field details.
func (cv *CustomValidator) Validate(i any) error {
	return validation.Struct(cv.validate, i)
}
