package errors

import (
	"errors"
	"fmt"
)

// NewSchemaError reports a missing or malformed required column. Schema
// errors are structural: they surface immediately and are not
// recoverable inside the pipeline.
func NewSchemaError(column string) *AppError {
	return &AppError{
		Type:    ErrorTypeSchema,
		Code:    "MISSING_COLUMN",
		Message: fmt.Sprintf("required column %q is missing from input", column),
		Context: map[string]interface{}{"column": column},
	}
}

// NewInsufficientDataError reports that a window, fold, or lag
// configuration needs more samples than the batch provides. The minimum
// required count travels with the error so the caller can size retries.
func NewInsufficientDataError(operation string, required, actual int) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientData,
		Code:    "INSUFFICIENT_DATA",
		Message: fmt.Sprintf("%s requires at least %d samples, got %d", operation, required, actual),
		Context: map[string]interface{}{
			"operation": operation,
			"required":  required,
			"actual":    actual,
		},
	}
}

// NewAllValuesMissingError reports a column that is entirely null after
// imputation. Fatal for that column only; other columns continue.
func NewAllValuesMissingError(column string) *AppError {
	return &AppError{
		Type:    ErrorTypeAllValuesMissing,
		Code:    "ALL_VALUES_MISSING",
		Message: fmt.Sprintf("column %q has no observed values to impute from", column),
		Context: map[string]interface{}{"column": column},
	}
}

// NewValidationError reports an invalid request or configuration.
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// IsSchemaError reports whether err is a schema error.
func IsSchemaError(err error) bool {
	return hasType(err, ErrorTypeSchema)
}

// IsInsufficientDataError reports whether err is an insufficient-data error.
func IsInsufficientDataError(err error) bool {
	return hasType(err, ErrorTypeInsufficientData)
}

// IsAllValuesMissingError reports whether err is an all-values-missing error.
func IsAllValuesMissingError(err error) bool {
	return hasType(err, ErrorTypeAllValuesMissing)
}

func hasType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
