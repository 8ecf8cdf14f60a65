package apiutil

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codr1/campusbook/internal/booking"
	"github.com/codr1/campusbook/internal/slot"
)

// Validate checks request bodies. Field names in errors follow the json tags.
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Both registrations only fail on an empty tag.
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := slot.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := slot.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ValidateStruct runs the struct's validate tags and reports failures as a
// booking validation error keyed by json field name.
func ValidateStruct(payload any) error {
	err := Validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	fields := make(map[string]string, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields[fieldErr.Field()] = reason(fieldErr)
	}
	return &booking.Error{Kind: booking.KindValidation, Message: "Validation failed", Fields: fields}
}

func reason(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + lowerFirst(strings.Fields(fieldErr.Param())[0]) + " is set"
	case "gt":
		return "must be greater than " + fieldErr.Param()
	case "gte", "min":
		return "must be at least " + fieldErr.Param()
	case "lte", "max":
		return "must be at most " + fieldErr.Param()
	case "timeofday":
		return "must be a time of day in HH:MM format"
	case "calendardate":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// DecodeAndValidate decodes the JSON body into dst and runs its validate tags.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return BadRequest(err)
	}
	return ValidateStruct(dst)
}
