package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Report JSON names so messages match the request body the client sent
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated as their float value so numeric tags (gte, lte) apply
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			var element ErrorResponse
			element.FailedField = err.Field()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Message renders a field error as a short human readable sentence.
func (e *ErrorResponse) Message() string {
	switch e.Tag {
	case "required":
		return e.FailedField + " is required"
	case "gte":
		return e.FailedField + " must be at least " + e.Value
	case "lte":
		return e.FailedField + " must be at most " + e.Value
	case "gt":
		return e.FailedField + " must be greater than " + e.Value
	case "min":
		return e.FailedField + " must be at least " + e.Value + " characters"
	case "max":
		return e.FailedField + " must be at most " + e.Value + " characters"
	case "oneof":
		return e.FailedField + " must be one of: " + e.Value
	default:
		return e.FailedField + " is invalid"
	}
}
