package flow

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)

	// Optional +, optional 38 country prefix, then a local number of
	// 9-10 digits. Separators are stripped before matching.
	phonePattern = regexp.MustCompile(`^\+?(38)?\d{9,10}$`)

	// local@domain.tld with a dotted domain and a TLD of at least two
	// letters. Deliberately stricter than the HTML5 email shape, so
	// "a@b" never reaches the calendar invite.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("ua_phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(phoneSeparators.ReplaceAllString(fl.Field().String(), ""))
	})
	v.RegisterValidation("booking_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

func ValidName(s string) bool {
	return validate.Var(strings.TrimSpace(s), "min=2") == nil
}

func ValidReason(s string) bool {
	return validate.Var(strings.TrimSpace(s), "min=10,max=500") == nil
}

func ValidPhone(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,ua_phone") == nil
}

func ValidEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,booking_email") == nil
}
