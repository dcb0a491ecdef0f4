package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterTags adds the domain struct tags to v:
//
//	studentid  four digits, a dash, four digits
//	trimmed    non-empty once surrounding whitespace is removed
func RegisterTags(v *validator.Validate) error {
	if err := v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
		return IsStudentID(strings.TrimSpace(fl.Field().String()))
	}); err != nil {
		return err
	}
	return v.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}
