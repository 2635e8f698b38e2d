package protocol

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation on a decoded request payload,
// returning a ValidationError-kinded *Error on the first violation.
// Handlers call this right after Decode and before touching any
// Bank/House state, per spec.md §7.1.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return Validation("%s", err.Error())
	}
	return nil
}
