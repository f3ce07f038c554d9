// Package validation wraps go-playground/validator with the password policy
// and turns field errors into client-facing validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/travel-planner/internal/apperr"
)

// Validator satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate checks i's validate tags. Failures come back as one
// *apperr.Error listing every offending field.
func (v *Validator) Validate(i any) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validationf("invalid input data. %s", strings.Join(msgs, ". "))
}

func describe(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f)
	case "email":
		return "please provide a valid email"
	case "min", "max", "len":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain %s %s item(s)", f, bound(fe.Tag()), fe.Param())
		}
		return fmt.Sprintf("%s must be %s %s characters", f, bound(fe.Tag()), fe.Param())
	case "eqfield":
		return "passwords are not the same"
	case "strongpassword":
		return "password must contain an uppercase letter, a lowercase letter, a number and a symbol"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", f)
	}
}

func bound(tag string) string {
	switch tag {
	case "min":
		return "at least"
	case "max":
		return "at most"
	}
	return "exactly"
}

// StrongPassword requires at least one lower-case letter, one upper-case
// letter, one digit and one symbol.
func StrongPassword(s string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}
