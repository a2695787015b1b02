package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/Eursukkul/ewm-service/internal/apperr"
	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator. Failures are
// reported as apperr validation errors named by the JSON field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation("", nil, "%s", err.Error())
	}
	fe := fieldErrs[0]
	return apperr.Validation(fe.Field(), fe.Value(), "%s", describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param() + " long"
	case "max":
		return "must be at most " + fe.Param() + " long"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	}
	return "failed on " + fe.Tag()
}
