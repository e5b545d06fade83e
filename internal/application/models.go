package application

import (
	"strings"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// Principal represents the authenticated caller invoking a service method.
// Authentication itself happens upstream; handlers pass the identity through.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Status tracks a reservation instance through the approval workflow.
type Status string

const (
	// StatusPending marks a freshly submitted instance awaiting a decision.
	StatusPending Status = "pending"
	// StatusApproved marks an instance confirmed by an administrator.
	StatusApproved Status = "approved"
	// StatusRejected marks an instance declined with a reason. Terminal.
	StatusRejected Status = "rejected"
	// StatusCancelled marks an instance withdrawn before its date. Terminal.
	StatusCancelled Status = "cancelled"
	// StatusCompleted marks an approved instance whose time has elapsed. Terminal.
	StatusCompleted Status = "completed"
)

// Live reports whether the instance still claims its slots.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusApproved
}

// Valid reports whether the status is one of the workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// transitions enumerates the allowed status changes. Rejected and completed
// are terminal; cancelled can be reached from either live state.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether the workflow permits moving from one status
// to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RequesterInput captures the identity snapshot recorded on each instance.
type RequesterInput struct {
	ID       string
	Name     string
	Email    string
	Category string
}

// RecurrencePattern describes a weekly repetition request.
type RecurrencePattern struct {
	StartDate time.Time
	Weekdays  []time.Weekday
	Weeks     int
}

// ReservationInput captures caller provided reservation fields. Exactly one
// of Dates or Pattern must be set.
type ReservationInput struct {
	Requester  RequesterInput
	ResourceID int
	Blocks     []timeblock.Block
	Software   string
	Purpose    string
	Dates      []time.Time
	Pattern    *RecurrencePattern
}

// Reservation represents a single-date reservation instance.
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

// CreateReservationParams wraps the data required to submit a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// CreateReservationResult carries the persisted instances of one request.
// GroupID is set when the request expanded to more than one date.
type CreateReservationResult struct {
	Reservations []Reservation
	GroupID      *string
}

// DecisionParams wraps the data required to decide on a single instance.
type DecisionParams struct {
	Principal     Principal
	ReservationID string
	Reason        string
}

// BulkAction identifies the decision applied across a reservation group.
type BulkAction string

const (
	// BulkApprove approves every pending instance in the group.
	BulkApprove BulkAction = "approve"
	// BulkReject rejects every pending instance in the group.
	BulkReject BulkAction = "reject"
	// BulkCancel cancels every live instance in the group.
	BulkCancel BulkAction = "cancel"
)

// BulkDecisionParams wraps the data required to decide on a whole group.
// IDs optionally narrows the decision to a subset; empty means every member.
type BulkDecisionParams struct {
	Principal Principal
	GroupID   string
	IDs       []string
	Action    BulkAction
	Reason    string
}

// BulkOutcome records the per-instance result of a bulk decision. Err is nil
// when the instance transitioned.
type BulkOutcome struct {
	ReservationID string
	Reservation   *Reservation
	Err           error
}

// BulkResult aggregates the outcomes of a bulk decision. Decisions are
// applied best effort: a failed instance never blocks its siblings.
type BulkResult struct {
	Outcomes  []BulkOutcome
	Succeeded int
	Failed    int
}

// ListReservationsParams wraps the filters accepted by reservation listings.
// Non-administrators are always scoped to their own reservations.
type ListReservationsParams struct {
	Principal   Principal
	Status      *Status
	Date        *time.Time
	GroupID     *string
	RequesterID *string
	ResourceID  *int
}

// BlockAvailability reports one time block on one resource for one date.
type BlockAvailability struct {
	Block     timeblock.Block
	StartTime string
	EndTime   string
	Available bool
}

// ResourceAvailability reports all six blocks of a resource for one date.
type ResourceAvailability struct {
	Resource Resource
	Blocks   []BlockAvailability
}

// DayAvailability is the full availability grid for one reservable date.
type DayAvailability struct {
	Date      time.Time
	Resources []ResourceAvailability
}

// AvailabilityParams wraps the data required to compute a day's grid.
// A non-empty Category narrows the grid to resources that category may use.
type AvailabilityParams struct {
	Principal Principal
	Date      time.Time
	Category  string
}

// ResourceInput captures caller provided catalog fields.
type ResourceInput struct {
	Name              string
	Hardware          string
	Software          string
	Enabled           *bool
	AllowedCategories []string
}

// Resource represents a lab computer in the catalog.
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

// AccessAllowed reports whether a requester category may reserve this
// resource. An empty allowed set means unrestricted.
func (r Resource) AccessAllowed(category string) bool {
	if len(r.AllowedCategories) == 0 {
		return true
	}
	for _, allowed := range r.AllowedCategories {
		if strings.EqualFold(allowed, category) {
			return true
		}
	}
	return false
}

// CreateResourceParams wraps the data required to add a catalog entry.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a catalog entry.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID int
	Input      ResourceInput
}
