package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Vocabulary is implemented by closed enumerations. The zero value of a
// vocabulary type must report Valid() == true when it means "not specified".
type Vocabulary interface {
	Valid() bool
}

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// report json names so messages match the wire field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("vocab", func(fl validator.FieldLevel) bool {
		if voc, ok := fl.Field().Interface().(Vocabulary); ok {
			return voc.Valid()
		}
		return false
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errs
	}
	for _, e := range validationErrors {
		field := e.Field()
		if strings.Contains(e.Namespace(), "[") {
			// dive errors: keep the element index, drop the root struct name
			if i := strings.Index(e.Namespace(), "."); i >= 0 {
				field = e.Namespace()[i+1:]
			}
		}
		switch e.Tag() {
		case "required":
			errs[field] = field + " is required"
		case "required_with":
			errs[field] = field + " is required when " + lowerFirst(e.Param()) + " is set"
		case "min":
			errs[field] = field + " must be at least " + e.Param() + unit(e)
		case "max":
			errs[field] = field + " must be at most " + e.Param() + unit(e)
		case "oneof":
			errs[field] = field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
		case "gtefield":
			errs[field] = field + " must not be lower than " + lowerFirst(e.Param())
		case "len":
			errs[field] = field + " must be exactly " + e.Param() + " characters"
		case "numeric":
			errs[field] = field + " must contain only digits"
		case "alphanum":
			errs[field] = field + " must contain only letters and digits"
		case "vocab":
			errs[field] = field + " has an unknown value"
		default:
			errs[field] = field + " is invalid"
		}
	}

	return errs
}

func unit(e validator.FieldError) string {
	if e.Kind() == reflect.String {
		return " characters"
	}
	return ""
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
