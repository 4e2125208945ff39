package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SanitizeValidationError takes a validator error and returns a user-friendly message
// without leaking internal Go struct names.
func SanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Invalid request body"
	}

	var messages []string
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min", "gte":
			if isNumeric(fe.Kind()) {
				messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
			} else {
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
			}
		case "max", "lte":
			if isNumeric(fe.Kind()) {
				messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
			} else {
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
			}
		case "hexadecimal", "len":
			messages = append(messages, fmt.Sprintf("%s must be a 24-character hex id", field))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}

	if len(messages) == 0 {
		return "Invalid request body"
	}

	return strings.Join(messages, "; ")
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
