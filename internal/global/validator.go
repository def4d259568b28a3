package global

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance for DTO structs.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// currency: the three currencies a caisse can hold.
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "XOF", "USD", "EUR":
			return true
		}
		return false
	})

	return v
}
