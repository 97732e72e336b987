// Package validation wraps go-playground/validator with the rules shared by
// use case inputs and HTTP request bodies.
package validation

import (
	"reflect"
	"strings"
	"time"

	"healthtrack/internal/domain/entity"
	domainerrors "healthtrack/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/pkg/errors"
)

// enumerated is implemented by the closed string types of the entity package.
type enumerated interface {
	IsValid() bool
}

// New returns a validator with the custom "notblank" and "enum" rules, field
// names taken from json tags, and entity.Nullable fields validated by their value.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(enumerated)

		return ok && e.IsValid()
	})

	v.RegisterCustomTypeFunc(nullableValue[float64], entity.Nullable[float64]{})
	v.RegisterCustomTypeFunc(nullableValue[int], entity.Nullable[int]{})
	v.RegisterCustomTypeFunc(nullableValue[string], entity.Nullable[string]{})
	v.RegisterCustomTypeFunc(nullableValue[time.Time], entity.Nullable[time.Time]{})
	v.RegisterCustomTypeFunc(nullableValue[entity.Gender], entity.Nullable[entity.Gender]{})

	return v
}

// nullableValue hands validator the wrapped value, or nil so omitempty skips null and unset.
func nullableValue[T any](field reflect.Value) any {
	n, ok := field.Interface().(entity.Nullable[T])
	if !ok || !n.Valid {
		return nil
	}

	return n.Value
}

// Struct validates s and reports failures as domainerrors.ErrValidationFailed.
func Struct(v *validator.Validate, s any) error {
	return FromError(v.Struct(s))
}

// FromError converts validator output into the domain validation error.
// Errors of any other kind are returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	return domainerrors.ErrValidationFailed.WithDetails(Describe(fieldErrs))
}

// Describe renders field errors as "field: reason" pairs joined by "; ".
func Describe(fieldErrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeField(fe))
	}

	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + ": is required"
	case "notblank":
		return field + ": must not be blank"
	case "email":
		return field + ": must be a valid email address"
	case "enum":
		return field + ": is not an allowed value"
	case "min":
		return field + ": must be at least " + fe.Param() + lengthUnit(fe)
	case "max":
		return field + ": must be at most " + fe.Param() + lengthUnit(fe)
	case "gt":
		return field + ": must be greater than " + fe.Param()
	case "gte":
		return field + ": must be greater than or equal to " + fe.Param()
	default:
		return field + ": failed " + fe.Tag() + " validation"
	}
}

// fieldPath drops the root struct name from the namespace, e.g. "items[0].grams".
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}

	return fe.Field()
}

func lengthUnit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
