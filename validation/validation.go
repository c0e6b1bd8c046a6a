// Package validation wraps a shared validator instance with the custom rules
// request payloads need. Handlers normalize a payload first (trimming,
// case-folding) and then collect every violation in one pass, so clients see
// the complete error list in a single round trip.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"quizdeck/pkg/apperr"
)

var validate = newValidator()

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their json name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	}))

	// Length is handled by min/max tags; this rule only checks character
	// classes. Passwords are never trimmed, so leading/trailing spaces count.
	must(v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var upper, lower, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return upper && lower && digit
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates s and returns the translated violation list, or nil when
// the value is valid.
func Struct(s any) []apperr.FieldViolation {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Only reachable on programmer error (non-struct input).
		panic(err)
	}

	out := make([]apperr.FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldViolation{
			Field:   fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:],
			Message: messageFor(fe),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "username":
		return "may only contain letters, digits and underscores"
	case "password":
		return "must contain an uppercase letter, a lowercase letter and a digit"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

// TrimPtr trims a string pointer in place, leaving nil untouched.
func TrimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// FoldEmail canonicalizes an email address: trimmed and case-folded.
func FoldEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
