/*
errors.go - Centralized error types for the fund engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with context and test them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Authorization - a guest tried to mutate state
  2. Validation - malformed input (bad date, empty name, invalid month)
  3. Store - missing records, duplicates, schema drift

SEE ALSO:
  - store.go: Stores return these errors
  - treasury/session.go: Maps store failures to caller-visible errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package fund

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnauthorized is returned when a caller without admin capability
	// attempts a mutation. No store call has been made.
	ErrUnauthorized = errors.New("administrator session required")

	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicatePayment is returned when a second payment would be created
	// for the same employee and period.
	ErrDuplicatePayment = errors.New("payment already exists for employee and period")

	// ErrConfigNotFound means the store holds no configuration row.
	// Callers fall back to DefaultConfig.
	ErrConfigNotFound = errors.New("config not found")

	// ErrUnsupportedField is the parent of UnsupportedFieldsError.
	ErrUnsupportedField = errors.New("config field not supported by store")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InvalidDateError is returned for birth dates that aren't "YYYY-MM-DD".
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrValidation
}

// UnsupportedFieldsError is returned by a ConfigStore when the backing
// schema lacks columns for some fields of a patch. Nothing was written.
type UnsupportedFieldsError struct {
	Fields []ConfigField
}

func (e *UnsupportedFieldsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("unsupported config fields: %s", strings.Join(names, ", "))
}

func (e *UnsupportedFieldsError) Unwrap() error {
	return ErrUnsupportedField
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicatePayment)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConfigNotFound)
}
