package persistence

import (
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// Status enumerates the approval workflow states of a reservation instance.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Live reports whether a reservation in this status still claims its slots.
// Only live instances count toward the single-holder invariant.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusApproved
}

// Resource is a reservable lab computer catalog entry. Identity is a small
// integer assigned by the store and immutable once reservations reference it.
type Resource struct {
	ID                int
	Name              string
	Hardware          string
	Software          string
	Enabled           bool
	AllowedCategories []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Reservation is the persisted unit of scheduling. Requester fields are a
// snapshot captured at creation so historical records stay readable if the
// account later changes.
type Reservation struct {
	ID                string
	RequesterID       string
	RequesterName     string
	RequesterEmail    string
	RequesterCategory string
	Software          string
	Purpose           string
	Date              time.Time
	ResourceID        int
	Blocks            []timeblock.Block
	GroupID           *string
	Status            Status
	DecidedBy         *string
	DecidedAt         *time.Time
	RejectReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
