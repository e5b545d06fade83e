package persistence

import (
	"context"
	"time"
)

// ResourceRepository exposes catalog operations for reservable computers.
// CreateResource assigns the next numeric identity and returns the stored
// record. DeleteResource must refuse with ErrResourceInUse while any
// reservation references the resource.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id int) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	DeleteResource(ctx context.Context, id int) error
}

// ReservationFilter narrows reservation queries. Zero fields are ignored.
type ReservationFilter struct {
	Date        *time.Time
	Status      *Status
	GroupID     *string
	RequesterID *string
	ResourceID  *int
	LiveOnly    bool
}

// TransitionParams describes an atomic status change. From is the
// compare-and-swap guard: the stored status must be one of the listed
// values or the transition fails with ErrStaleStatus. A transition to
// StatusApproved re-validates slot liveness in the same atomic unit and
// fails with a SlotConflictError when the slot was claimed concurrently.
type TransitionParams struct {
	ID      string
	From    []Status
	To      Status
	ActorID string
	Reason  string
	At      time.Time
}

// ReservationRepository is the authoritative reservation ledger.
//
// CreateReservations persists a whole expanded batch or nothing: the
// conflict check against live instances and the writes happen in one atomic
// unit, and the first colliding slot is reported as a SlotConflictError.
type ReservationRepository interface {
	CreateReservations(ctx context.Context, reservations []Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	TransitionReservation(ctx context.Context, params TransitionParams) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}
