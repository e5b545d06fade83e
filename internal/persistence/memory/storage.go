// Package memory provides a mutex-guarded in-memory implementation of the
// persistence repositories. It backs the development storage mode and the
// service-level tests; the slot-conflict and compare-and-swap guarantees
// match the SQLite store because every check-then-write runs under one lock.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/scheduler"
	"github.com/example/lab-scheduler/internal/timeblock"
)

// Storage holds all persisted state behind a single mutex.
type Storage struct {
	mu           sync.RWMutex
	nextResource int
	resources    map[int]persistence.Resource
	reservations map[string]persistence.Reservation
}

// New returns an empty storage.
func New() *Storage {
	return &Storage{
		nextResource: 1,
		resources:    make(map[int]persistence.Resource),
		reservations: make(map[string]persistence.Reservation),
	}
}

// Close releases resources held by the storage. No-op for memory.
func (s *Storage) Close() error { return nil }

// Migrate initialises the storage. No-op for memory.
func (s *Storage) Migrate(context.Context) error { return nil }

// --- ResourceRepository implementation ---

// CreateResource assigns the next numeric identity and stores the resource.
func (s *Storage) CreateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resource.ID = s.nextResource
	s.nextResource++
	s.resources[resource.ID] = cloneResource(resource)
	return cloneResource(resource), nil
}

// UpdateResource replaces the stored resource. Identity is immutable.
func (s *Storage) UpdateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[resource.ID]; !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	s.resources[resource.ID] = cloneResource(resource)
	return cloneResource(resource), nil
}

// GetResource retrieves a resource by identity.
func (s *Storage) GetResource(ctx context.Context, id int) (persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resource, ok := s.resources[id]
	if !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return cloneResource(resource), nil
}

// ListResources returns all resources ordered by identity.
func (s *Storage) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := make([]persistence.Resource, 0, len(s.resources))
	for _, resource := range s.resources {
		resources = append(resources, cloneResource(resource))
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })
	return resources, nil
}

// DeleteResource removes an unreferenced resource.
func (s *Storage) DeleteResource(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[id]; !ok {
		return persistence.ErrNotFound
	}
	for _, res := range s.reservations {
		if res.ResourceID == id {
			return persistence.ErrResourceInUse
		}
	}
	delete(s.resources, id)
	return nil
}

// --- ReservationRepository implementation ---

// CreateReservations persists the batch atomically: if any candidate slot is
// claimed by a live instance, nothing is written and the first conflict is
// reported.
func (s *Storage) CreateReservations(ctx context.Context, reservations []persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, candidate := range reservations {
		if err := s.checkSlotFreeLocked(candidate, reservations, false); err != nil {
			return err
		}
	}
	for _, reservation := range reservations {
		s.reservations[reservation.ID] = cloneReservation(reservation)
	}
	return nil
}

// GetReservation retrieves a reservation by identity.
func (s *Storage) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return cloneReservation(reservation), nil
}

// ListReservations returns reservations matching the filter, ordered
// ascending by date, then resource identity, then id.
func (s *Storage) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]persistence.Reservation, 0)
	for _, reservation := range s.reservations {
		if !matchesFilter(reservation, filter) {
			continue
		}
		matches = append(matches, cloneReservation(reservation))
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Date.Equal(matches[j].Date) {
			return matches[i].Date.Before(matches[j].Date)
		}
		if matches[i].ResourceID != matches[j].ResourceID {
			return matches[i].ResourceID < matches[j].ResourceID
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// TransitionReservation applies a compare-and-swap status change. Approval
// re-validates slot liveness under the same lock, so two racing approvals of
// colliding instances cannot both succeed.
func (s *Storage) TransitionReservation(ctx context.Context, params persistence.TransitionParams) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[params.ID]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	allowed := false
	for _, from := range params.From {
		if reservation.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return persistence.Reservation{}, persistence.ErrStaleStatus
	}

	if params.To == persistence.StatusApproved {
		// Only an already-approved rival blocks approval: a competing
		// pending instance loses the race once this one is approved.
		if err := s.checkSlotFreeLocked(reservation, nil, true); err != nil {
			return persistence.Reservation{}, err
		}
	}

	reservation.Status = params.To
	reservation.UpdatedAt = params.At
	switch params.To {
	case persistence.StatusApproved, persistence.StatusRejected, persistence.StatusCancelled:
		actor := params.ActorID
		at := params.At
		reservation.DecidedBy = &actor
		reservation.DecidedAt = &at
	}
	if params.To == persistence.StatusRejected {
		reason := params.Reason
		reservation.RejectReason = &reason
	}

	s.reservations[params.ID] = cloneReservation(reservation)
	return cloneReservation(reservation), nil
}

// DeleteReservation removes a reservation by identity.
func (s *Storage) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

// checkSlotFreeLocked verifies no stored instance outside the incoming batch
// claims any of the candidate's slots. With approvedOnly false every live
// (pending or approved) instance blocks; with approvedOnly true only
// approved instances do. The block scan itself is the scheduler's conflict
// check; this method only selects the rivals. Callers hold the write lock.
func (s *Storage) checkSlotFreeLocked(candidate persistence.Reservation, batch []persistence.Reservation, approvedOnly bool) error {
	inBatch := make(map[string]struct{}, len(batch))
	for _, b := range batch {
		inBatch[b.ID] = struct{}{}
	}

	rivals := make([]scheduler.Reservation, 0, len(s.reservations))
	for _, existing := range s.reservations {
		if _, ok := inBatch[existing.ID]; ok {
			continue
		}
		if approvedOnly {
			if existing.Status != persistence.StatusApproved {
				continue
			}
		} else if !existing.Status.Live() {
			continue
		}
		rivals = append(rivals, scheduler.Reservation{
			ID:         existing.ID,
			ResourceID: existing.ResourceID,
			Date:       existing.Date,
			Blocks:     existing.Blocks,
		})
	}

	conflicts := scheduler.FindConflicts(rivals, scheduler.Reservation{
		ID:         candidate.ID,
		ResourceID: candidate.ResourceID,
		Date:       candidate.Date,
		Blocks:     candidate.Blocks,
	})
	if len(conflicts) > 0 {
		return &persistence.SlotConflictError{
			ResourceID: conflicts[0].ResourceID,
			Date:       timeblock.NormalizeDate(conflicts[0].Date),
			Block:      conflicts[0].Block,
		}
	}
	return nil
}

func matchesFilter(reservation persistence.Reservation, filter persistence.ReservationFilter) bool {
	if filter.Date != nil && !timeblock.SameDate(reservation.Date, *filter.Date) {
		return false
	}
	if filter.Status != nil && reservation.Status != *filter.Status {
		return false
	}
	if filter.LiveOnly && !reservation.Status.Live() {
		return false
	}
	if filter.GroupID != nil {
		if reservation.GroupID == nil || *reservation.GroupID != *filter.GroupID {
			return false
		}
	}
	if filter.RequesterID != nil && !strings.EqualFold(reservation.RequesterID, *filter.RequesterID) {
		return false
	}
	if filter.ResourceID != nil && reservation.ResourceID != *filter.ResourceID {
		return false
	}
	return true
}

func cloneResource(resource persistence.Resource) persistence.Resource {
	resource.AllowedCategories = append([]string(nil), resource.AllowedCategories...)
	return resource
}

func cloneReservation(reservation persistence.Reservation) persistence.Reservation {
	reservation.Blocks = append([]timeblock.Block(nil), reservation.Blocks...)
	reservation.GroupID = cloneString(reservation.GroupID)
	reservation.DecidedBy = cloneString(reservation.DecidedBy)
	reservation.RejectReason = cloneString(reservation.RejectReason)
	reservation.DecidedAt = cloneTime(reservation.DecidedAt)
	return reservation
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
