package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)
	ErrRecordNotFound = fmt.Errorf("%w: record", ErrNotFound)
	ErrTermNotFound   = fmt.Errorf("%w: term", ErrNotFound)

	// Validation errors
	ErrInvalidCounts        = errors.New("invalid contingency counts")
	ErrEmptyStudy           = errors.New("study set is empty")
	ErrEmptyPopulation      = errors.New("population set is empty")
	ErrStudyNotInPopulation = errors.New("study gene missing from population")
	ErrNoAssociations       = errors.New("no term associations for population")

	// Calculation errors
	ErrPValueOutOfRange = errors.New("p-value outside [0, 1]")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewCountError(reason string, studyCount, studyN, popCount, popN int) error {
	return fmt.Errorf("%w: %s (study %d/%d, population %d/%d)",
		ErrInvalidCounts, reason, studyCount, studyN, popCount, popN)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCounts) ||
		errors.Is(err, ErrEmptyStudy) ||
		errors.Is(err, ErrEmptyPopulation) ||
		errors.Is(err, ErrStudyNotInPopulation)
}
