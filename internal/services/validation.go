package services

import (
	"fmt"
	"reflect"
	"strings"

	"students/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs v over s and converts failures into an
// apperr.Validation error keyed by field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	return apperr.Validation(fields)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field %s is required", e.Field())
	case "email":
		return fmt.Sprintf("field %s must be a valid email address", e.Field())
	case "gte":
		return fmt.Sprintf("field %s must be greater than or equal to %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("field %s must be at least %s characters", e.Field(), e.Param())
	default:
		return fmt.Sprintf("field %s failed on the '%s' tag", e.Field(), e.Tag())
	}
}
