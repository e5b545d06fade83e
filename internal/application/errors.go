package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// MinRejectReasonLength is the minimum rejection reason length in characters.
const MinRejectReasonLength = 10

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAmbiguousRequest is returned when a request supplies both explicit dates and a pattern, or neither.
	ErrAmbiguousRequest = errors.New("application: exactly one of dates or pattern must be provided")
	// ErrEmptyExpansion is returned when a recurrence pattern yields no reservable dates.
	ErrEmptyExpansion = errors.New("application: recurrence pattern produced no dates")
	// ErrReasonTooShort is returned when a rejection reason is below the minimum length.
	ErrReasonTooShort = errors.New("application: rejection reason too short")
	// ErrResourceInUse is returned when deleting a resource that reservations still reference.
	ErrResourceInUse = errors.New("application: resource has reservations")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// InvalidDateError reports a requested date that is not reservable.
type InvalidDateError struct {
	Date   time.Time
	Reason string
}

// Error implements the error interface.
func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("application: date %s is not reservable: %s", e.Date.Format("2006-01-02"), e.Reason)
}

// TooManyBlocksError reports a request exceeding the per-request block cap.
type TooManyBlocksError struct {
	Requested int
	Max       int
}

// Error implements the error interface.
func (e *TooManyBlocksError) Error() string {
	return fmt.Sprintf("application: %d blocks requested, at most %d allowed per request", e.Requested, e.Max)
}

// SlotConflictError reports a slot already claimed by another reservation.
type SlotConflictError struct {
	ResourceID int
	Date       time.Time
	Block      timeblock.Block
}

// Error implements the error interface.
func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("application: resource %d already reserved on %s %s", e.ResourceID, e.Date.Format("2006-01-02"), e.Block)
}

// InvalidTransitionError reports a status change the workflow does not permit.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("application: cannot transition reservation from %s to %s", e.From, e.To)
}
