package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MaxReportedErrors caps the per-item error messages shown to a user.
const MaxReportedErrors = 10

var (
	// ErrDuplicate is returned for an item whose fingerprint is already stored.
	ErrDuplicate = errors.New("duplicate question detected")
	// ErrNotFound indicates a document id does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrForbidden is returned when the caller lacks the admin role.
	ErrForbidden = errors.New("admin role required")
	// ErrUnavailable is returned when an optional collaborator is not configured.
	ErrUnavailable = errors.New("not configured")
)

// ParseError reports malformed or empty bulk input. The batch is not attempted.
type ParseError struct {
	Label string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Label, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Label, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports one record field that violates a constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ScheduleValidationError carries every problem found in a schedule payload.
type ScheduleValidationError struct {
	Problems []string
}

func (e *ScheduleValidationError) Error() string {
	return "schedule validation failed: " + strings.Join(e.Problems, "; ")
}

// StoreError wraps a rejected document store operation.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
