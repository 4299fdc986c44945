// Package validation checks API request payloads before they reach the
// service layer.
package validation

import (
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "vendtune/internal/errors"
)

// RequestValidator validates tagged request structs.
type RequestValidator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRequestValidator creates a request validator.
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Struct validates a tagged struct and returns one entry per failing field.
// A nil result means the payload is valid.
func (v *RequestValidator) Struct(s any) []apperrors.ValidationError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.ValidationError{{Field: "", Message: err.Error()}}
	}

	fields := make([]apperrors.ValidationError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, apperrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must match the format " + fe.Param()
	default:
		return "failed the '" + fe.Tag() + "' constraint"
	}
}
