package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound = errors.New("task not found")
	ErrIllegalState = errors.New("illegal task state")

	// Validation errors: missing fields, bad enum values, cross-clinic access.
	ErrValidation = errors.New("validation failed")

	// Configuration errors
	ErrConfigFetch = errors.New("clinic rules unavailable")

	// Directory errors
	ErrPatientNotFound = errors.New("patient not found")

	// ErrNoChange is returned by a mutator to abandon an update without writing.
	ErrNoChange = errors.New("no change")
)
