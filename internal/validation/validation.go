package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"directory-backend/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their json name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and converts failures into an apperr validation error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := apperr.Fields{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), message(fe))
	}
	return apperr.Validation(fields)
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "e164":
		return fmt.Sprintf("The %s must be a phone number in international format.", label)
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", label, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
