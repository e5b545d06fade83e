package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrStaleStatus is returned when a transition's compare-and-swap
	// guard does not match the stored status.
	ErrStaleStatus = errors.New("persistence: status changed concurrently")

	// ErrResourceInUse is returned when deleting a resource that is still
	// referenced by reservations.
	ErrResourceInUse = errors.New("persistence: resource referenced by reservations")
)

// SlotConflictError reports the first (resource, date, block) slot already
// claimed by a live reservation.
type SlotConflictError struct {
	ResourceID int
	Date       time.Time
	Block      timeblock.Block
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("persistence: resource %d already reserved on %s %s",
		e.ResourceID, e.Date.Format("2006-01-02"), e.Block)
}
