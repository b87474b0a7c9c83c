package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	mpesaPattern   = regexp.MustCompile(`^2547[0-9]{8}$`)
	kePhonePattern = regexp.MustCompile(`^0[17]\d{8}$`)
)

func GetValidator() *validator.Validate {
	once.Do(initValidator)
	return validate
}

func initValidator() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("mpesa", func(fl validator.FieldLevel) bool {
		return mpesaPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("kephone", func(fl validator.FieldLevel) bool {
		return kePhonePattern.MatchString(fl.Field().String())
	})
}

// IsMpesaNumber reports whether s is a payout-capable Safaricom number (2547XXXXXXXX).
func IsMpesaNumber(s string) bool {
	return mpesaPattern.MatchString(s)
}

func ParseErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	ok := errors.As(err, &validationErrors)
	if !ok {
		return []string{"Unknown error"}
	}

	errs := make([]string, 0)
	for _, e := range validationErrors {
		errs = append(errs, prettyError(e))
	}

	return errs
}

func prettyError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s length must be greater than or equal to %s", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "max":
		if e.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s cannot be more than %s characters", e.Field(), e.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be %s", e.Field(), strings.Join(strings.Fields(e.Param()), " or "))
	case "mpesa":
		return e.Field() + " must be a valid M-Pesa number (2547XXXXXXXX)"
	case "kephone":
		return e.Field() + " must be a valid phone number (07XXXXXXXX or 01XXXXXXXX)"
	default:
		return e.Error()
	}
}

// ValidateStruct runs the shared validator and folds the failures into one error.
func ValidateStruct(s interface{}, sentinel error) error {
	if err := GetValidator().Struct(s); err != nil {
		return fmt.Errorf("%w: %s", sentinel, strings.Join(ParseErrors(err), " // "))
	}
	return nil
}
