package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report 'TagName' json tag instead of struct field name
	v.RegisterTagNameFunc(useJSONTagNames)

	// decimal.Decimal is a struct, compare it via its string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("nonnegative", validateNonNegativeDecimal)

	return v
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

// Validate struct by its tags
// Returns *apperrors.ValidationError keyed by json field names
func Struct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validate: %w", err)
	}

	fields := make(map[string]string, len(errs))
	for _, fieldError := range errs {
		fields[fieldName(fieldError)] = message(fieldError)
	}

	return apperrors.NewValidationError(fields)
}

func Email(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// Nested fields are reported with their path, top level ones by name only
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Create user-friendly error messages based on validation tag
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s", fe.Param())
	case "gte", "nonnegative":
		return "Ensure this value is not negative"
	case "email":
		return "Enter a valid email address"
	case "url", "http_url":
		return "Enter a valid URL"
	case "oneof":
		return fmt.Sprintf("Value is not a valid choice, expected one of: %s", strings.ReplaceAll(fe.Param(), "'", ""))
	default:
		return "Invalid value"
	}
}
