package services

import (
	"errors"
	"fmt"

	apperrors "github.com/edustep/progress-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Catalog errors
	ErrUnitNotFound     = errors.New("unit not found")
	ErrExerciseNotFound = errors.New("exercise not found")

	// Submission errors
	ErrExerciseNotInUnit = errors.New("exercise does not belong to the unit")
	ErrInvalidAnswerBody = errors.New("answer body does not match exercise kind")
	ErrNotGradable       = errors.New("exercise cannot be graded server-side")

	// Batch errors
	ErrInvalidBatchRequest = errors.New("batch request must contain between 1 and 50 unit ids")

	// Mistake list errors
	ErrMistakeNotFound = errors.New("no attempts found for this exercise")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// wrapValidation converts raw struct-tag failures into the shared
// ValidationErrors type so handlers can map them to a 400 with field detail.
func wrapValidation(err error) error {
	if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
		return ve
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrMistakeNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrInvalidBatchRequest) ||
		errors.Is(err, ErrInvalidAnswerBody) ||
		errors.Is(err, ErrExerciseNotInUnit) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
