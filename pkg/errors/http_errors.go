package errors

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// FromError converts a standard error to an AppError
// If the error is already an AppError, it is returned as-is
// Otherwise, it is wrapped as an internal server error
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return FromValidation(verrs)
	}

	// internal causes are logged, never echoed to clients
	return NewInternalServerError(CodeInternal, "An unexpected error occurred").Wrap(err)
}

// FromValidation turns validator errors into a 400 with per-field details
func FromValidation(verrs validator.ValidationErrors) *AppError {
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: strings.ToLower(fe.Field()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return NewBadRequestError(CodeValidationFailed, "Request validation failed").WithDetails(fields)
}

// BadRequestWithDetails creates a 400 Bad Request error with details
func BadRequestWithDetails(code string, message string, details any) *AppError {
	return NewBadRequestError(code, message).WithDetails(details)
}
