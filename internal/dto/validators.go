package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// companyCodePattern accepts the short uppercase identifiers the billing
// system assigns to companies, e.g. "ACME" or "ACME-EU2".
var companyCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,19}$`)

// RegisterCustomValidators wires the domain-specific binding tags into gin's
// validator engine. Must run once before the first request is bound.
func RegisterCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("companycode", func(fl validator.FieldLevel) bool {
			return companyCodePattern.MatchString(fl.Field().String())
		})
	}
}
