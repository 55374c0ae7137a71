// Package validate wires go-playground/validator into Echo so handlers
// can call c.Validate on bound request bodies.
package validate

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts a validator.Validate instance to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with struct tag validation enabled.
func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator.  Validation failures surface as
// 400 responses with the validator's message.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
