package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/recurrence"
	"github.com/example/lab-scheduler/internal/scheduler"
	"github.com/example/lab-scheduler/internal/timeblock"
)

// ReservationRepository captures the persistence interactions needed by the service.
type ReservationRepository interface {
	CreateReservations(ctx context.Context, reservations []Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
	TransitionReservation(ctx context.Context, change StatusChange) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// ReservationRepositoryFilter narrows queries issued to the reservation repository.
type ReservationRepositoryFilter struct {
	Date        *time.Time
	Status      *Status
	GroupID     *string
	RequesterID *string
	ResourceID  *int
	LiveOnly    bool
}

// StatusChange describes a guarded status transition. The repository applies
// it only while the stored status is one of From, and revalidates slot
// ownership when To is approved.
type StatusChange struct {
	ID      string
	From    []Status
	To      Status
	ActorID string
	Reason  string
	At      time.Time
}

// ResourceCatalog exposes the catalog lookups needed when placing and
// inspecting reservations.
type ResourceCatalog interface {
	GetResource(ctx context.Context, id int) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// ReservationService orchestrates validation, expansion, and persistence for
// the reservation workflow.
type ReservationService struct {
	reservations ReservationRepository
	resources    ResourceCatalog
	maxBlocks    int
	idGenerator  func() string
	now          func() time.Time
	availability *availabilityCache
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
// maxBlocks caps the blocks of a single request; values outside the domain
// limit fall back to the defaults.
func NewReservationService(reservations ReservationRepository, resources ResourceCatalog, maxBlocks int, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, resources, maxBlocks, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, resources ResourceCatalog, maxBlocks int, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if maxBlocks < 1 || maxBlocks > timeblock.MaxBlocksPerReservation {
		maxBlocks = timeblock.DefaultMaxBlocksPerRequest
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		maxBlocks:    maxBlocks,
		idGenerator:  idGenerator,
		now:          now,
		availability: newAvailabilityCache(0, 0, now),
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates the request, expands it to concrete dates, and
// persists one pending instance per date. The whole expansion is stored
// atomically: a slot conflict on any date persists nothing.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (result CreateReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	input := params.Input
	logger := s.loggerWith(ctx, "CreateReservation",
		"requester_id", input.Requester.ID,
		"resource_id", input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("instance_count", len(result.Reservations)).InfoContext(ctx, "reservation created")
	}()

	vErr := &ValidationError{}
	validateRequester(input.Requester, vErr)
	if strings.TrimSpace(input.Purpose) == "" {
		vErr.add("purpose", "purpose is required")
	}
	if input.ResourceID <= 0 {
		vErr.add("resource_id", "resource id is required")
	}
	blocks, blocksErr := normalizeBlocks(input.Blocks, s.maxBlocks, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if blocksErr != nil {
		err = blocksErr
		return
	}

	expansion, err := s.expand(input)
	if err != nil {
		return
	}

	if err = s.checkResourceUsable(ctx, input.ResourceID, input.Requester.Category); err != nil {
		return
	}

	createdAt := s.now()
	var groupID *string
	if expansion.GroupID != "" {
		group := expansion.GroupID
		groupID = &group
	}

	instances := make([]Reservation, 0, len(expansion.Dates))
	for _, date := range expansion.Dates {
		instances = append(instances, Reservation{
			ID:                s.idGenerator(),
			RequesterID:       strings.TrimSpace(input.Requester.ID),
			RequesterName:     strings.TrimSpace(input.Requester.Name),
			RequesterEmail:    strings.TrimSpace(input.Requester.Email),
			RequesterCategory: strings.TrimSpace(input.Requester.Category),
			Software:          strings.TrimSpace(input.Software),
			Purpose:           strings.TrimSpace(input.Purpose),
			Date:              date,
			ResourceID:        input.ResourceID,
			Blocks:            blocks,
			GroupID:           groupID,
			Status:            StatusPending,
			CreatedAt:         createdAt,
			UpdatedAt:         createdAt,
		})
	}

	if s.reservations == nil {
		result = CreateReservationResult{Reservations: instances, GroupID: groupID}
		return
	}

	if err = s.reservations.CreateReservations(ctx, instances); err != nil {
		err = mapReservationRepoError(err)
		return
	}

	s.availability.Invalidate()
	result = CreateReservationResult{Reservations: instances, GroupID: groupID}
	return
}

// GetReservation returns a single instance visible to the principal.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, id string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	if !principal.IsAdmin && !strings.EqualFold(reservation.RequesterID, principal.UserID) {
		return Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

// ListReservations enumerates instances matching the filters. Callers who
// are not administrators only ever see their own reservations.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if params.Status != nil && !params.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown status")
		err = vErr
		return
	}

	requesterID := params.RequesterID
	if !params.Principal.IsAdmin {
		own := params.Principal.UserID
		requesterID = &own
	}

	var date *time.Time
	if params.Date != nil {
		normalized := timeblock.NormalizeDate(*params.Date)
		date = &normalized
	}

	reservations, err = s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
		Date:        date,
		Status:      params.Status,
		GroupID:     params.GroupID,
		RequesterID: requesterID,
		ResourceID:  params.ResourceID,
	})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// Availability computes the per-block availability grid of every enabled
// resource for one reservable date.
func (s *ReservationService) Availability(ctx context.Context, params AvailabilityParams) (grid DayAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.resources == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	date := timeblock.NormalizeDate(params.Date)
	logger := s.loggerWith(ctx, "Availability", "date", date.Format("2006-01-02"))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute availability", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !timeblock.IsReservableWeekday(date) {
		err = &InvalidDateError{Date: date, Reason: fmt.Sprintf("%s is not a reservable weekday", date.Weekday())}
		return
	}

	cacheKey := date.Format("2006-01-02") + "|" + strings.ToLower(params.Category)
	if cached, ok := s.availability.Get(cacheKey); ok {
		grid = cached
		return
	}

	resources, err := s.resources.ListResources(ctx)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	enabled := make([]Resource, 0, len(resources))
	resourceIDs := make([]int, 0, len(resources))
	for _, resource := range resources {
		if !resource.Enabled {
			continue
		}
		if params.Category != "" && !resource.AccessAllowed(params.Category) {
			continue
		}
		enabled = append(enabled, resource)
		resourceIDs = append(resourceIDs, resource.ID)
	}

	live, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{Date: &date, LiveOnly: true})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	partition := scheduler.ComputeAvailability(resourceIDs, toSchedulerReservations(live), date)

	occupied := make(map[timeblock.Block]map[int]struct{}, len(partition))
	for _, entry := range partition {
		set := make(map[int]struct{}, len(entry.Occupied))
		for _, id := range entry.Occupied {
			set[id] = struct{}{}
		}
		occupied[entry.Block] = set
	}

	grid = DayAvailability{Date: date, Resources: make([]ResourceAvailability, 0, len(enabled))}
	for _, resource := range enabled {
		entry := ResourceAvailability{Resource: resource, Blocks: make([]BlockAvailability, 0, timeblock.BlockCount)}
		for _, block := range timeblock.All() {
			start, end := timeblock.WindowClock(block)
			_, taken := occupied[block][resource.ID]
			entry.Blocks = append(entry.Blocks, BlockAvailability{
				Block:     block,
				StartTime: start,
				EndTime:   end,
				Available: !taken,
			})
		}
		grid.Resources = append(grid.Resources, entry)
	}

	s.availability.Store(cacheKey, grid)
	return
}

// Approve confirms a pending instance. Only administrators decide, and the
// repository revalidates the slots against approved rivals.
func (s *ReservationService) Approve(ctx context.Context, params DecisionParams) (Reservation, error) {
	return s.decide(ctx, params, StatusApproved, "")
}

// Reject declines a pending instance with a reason of at least
// MinRejectReasonLength characters.
func (s *ReservationService) Reject(ctx context.Context, params DecisionParams) (Reservation, error) {
	reason := strings.TrimSpace(params.Reason)
	if utf8.RuneCountInString(reason) < MinRejectReasonLength {
		return Reservation{}, ErrReasonTooShort
	}
	return s.decide(ctx, params, StatusRejected, reason)
}

// Cancel withdraws a live instance. Requesters may cancel their own
// reservations; administrators may cancel any.
func (s *ReservationService) Cancel(ctx context.Context, params DecisionParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	if !params.Principal.IsAdmin && !strings.EqualFold(existing.RequesterID, params.Principal.UserID) {
		err = ErrUnauthorized
		return
	}
	if !CanTransition(existing.Status, StatusCancelled) {
		err = &InvalidTransitionError{From: existing.Status, To: StatusCancelled}
		return
	}

	reservation, err = s.transition(ctx, params.ReservationID, StatusCancelled, params.Principal.UserID, "")
	return
}

// BulkDecide applies one decision across every instance of a group, best
// effort. The result reports per-instance success or failure; one failed
// instance never rolls back its siblings.
func (s *ReservationService) BulkDecide(ctx context.Context, params BulkDecisionParams) (result BulkResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "BulkDecide",
		"principal_id", params.Principal.UserID,
		"group_id", params.GroupID,
		"action", string(params.Action),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to apply bulk decision", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("succeeded", result.Succeeded, "failed", result.Failed).InfoContext(ctx, "bulk decision applied")
	}()

	var target Status
	switch params.Action {
	case BulkApprove:
		target = StatusApproved
	case BulkReject:
		target = StatusRejected
	case BulkCancel:
		target = StatusCancelled
	default:
		vErr := &ValidationError{}
		vErr.add("action", "action must be approve, reject, or cancel")
		err = vErr
		return
	}

	if target != StatusCancelled && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	reason := strings.TrimSpace(params.Reason)
	if target == StatusRejected && utf8.RuneCountInString(reason) < MinRejectReasonLength {
		err = ErrReasonTooShort
		return
	}

	groupID := params.GroupID
	members, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{GroupID: &groupID})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	if len(members) == 0 {
		err = ErrNotFound
		return
	}

	if len(params.IDs) > 0 {
		byID := make(map[string]Reservation, len(members))
		for _, member := range members {
			byID[member.ID] = member
		}
		// Ids outside the group fail individually without touching siblings.
		selected := make([]Reservation, 0, len(params.IDs))
		for _, id := range params.IDs {
			member, ok := byID[id]
			if !ok {
				result.Outcomes = append(result.Outcomes, BulkOutcome{ReservationID: id, Err: ErrNotFound})
				result.Failed++
				continue
			}
			selected = append(selected, member)
		}
		members = selected
	}

	for _, member := range members {
		outcome := BulkOutcome{ReservationID: member.ID}

		switch {
		case target == StatusCancelled && !params.Principal.IsAdmin && !strings.EqualFold(member.RequesterID, params.Principal.UserID):
			outcome.Err = ErrUnauthorized
		case !CanTransition(member.Status, target):
			outcome.Err = &InvalidTransitionError{From: member.Status, To: target}
		default:
			updated, transitionErr := s.transition(ctx, member.ID, target, params.Principal.UserID, reason)
			if transitionErr != nil {
				outcome.Err = transitionErr
			} else {
				outcome.Reservation = &updated
			}
		}

		if outcome.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return
}

// CompleteElapsed moves approved instances whose final block has ended to
// completed. It returns the number of instances transitioned.
func (s *ReservationService) CompleteElapsed(ctx context.Context, principal Principal) (completed int, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CompleteElapsed", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to complete elapsed reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("completed_count", completed).InfoContext(ctx, "elapsed reservations completed")
	}()

	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	status := StatusApproved
	approved, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{Status: &status})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	now := s.now()
	for _, reservation := range approved {
		if !reservationEnd(reservation).Before(now) {
			continue
		}
		if _, transitionErr := s.transition(ctx, reservation.ID, StatusCompleted, principal.UserID, ""); transitionErr != nil {
			// A racing cancel is fine; anything else aborts the sweep.
			var stale *InvalidTransitionError
			if errors.As(transitionErr, &stale) || errors.Is(transitionErr, ErrNotFound) {
				continue
			}
			err = transitionErr
			return
		}
		completed++
	}
	return
}

// DeleteReservation hard-deletes an instance. Administrators only.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, id string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)

	if err := s.reservations.DeleteReservation(ctx, id); err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.availability.Invalidate()
	logger.InfoContext(ctx, "reservation deleted")
	return nil
}

// decide handles the administrator-only single-instance decisions.
func (s *ReservationService) decide(ctx context.Context, params DecisionParams, target Status, reason string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Decide",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
		"target_status", string(target),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation decided")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	if !CanTransition(existing.Status, target) {
		err = &InvalidTransitionError{From: existing.Status, To: target}
		return
	}

	reservation, err = s.transition(ctx, params.ReservationID, target, params.Principal.UserID, reason)
	return
}

// transition issues the guarded repository change and keeps the availability
// cache coherent.
func (s *ReservationService) transition(ctx context.Context, id string, target Status, actorID, reason string) (Reservation, error) {
	var from []Status
	for status, targets := range transitions {
		if slices.Contains(targets, target) {
			from = append(from, status)
		}
	}

	updated, err := s.reservations.TransitionReservation(ctx, StatusChange{
		ID:      id,
		From:    from,
		To:      target,
		ActorID: actorID,
		Reason:  reason,
		At:      s.now(),
	})
	if err != nil {
		if errors.Is(err, persistence.ErrStaleStatus) {
			// Lost a race; report the status the instance ended up in.
			current, getErr := s.reservations.GetReservation(ctx, id)
			if getErr == nil {
				return Reservation{}, &InvalidTransitionError{From: current.Status, To: target}
			}
		}
		return Reservation{}, mapReservationRepoError(err)
	}

	s.availability.Invalidate()
	return updated, nil
}

func (s *ReservationService) expand(input ReservationInput) (recurrence.Expansion, error) {
	req := recurrence.Request{Dates: input.Dates}
	if input.Pattern != nil {
		req.Pattern = &recurrence.Pattern{
			StartDate: input.Pattern.StartDate,
			Weekdays:  input.Pattern.Weekdays,
			Weeks:     input.Pattern.Weeks,
		}
	}

	expansion, err := recurrence.Expand(req, s.now(), s.idGenerator)
	if err != nil {
		return recurrence.Expansion{}, mapExpansionError(err)
	}
	return expansion, nil
}

func (s *ReservationService) checkResourceUsable(ctx context.Context, resourceID int, category string) error {
	if s.resources == nil {
		return nil
	}

	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("resource %d: %w", resourceID, ErrNotFound)
		}
		return err
	}
	if !resource.Enabled {
		vErr := &ValidationError{}
		vErr.add("resource_id", "resource is disabled")
		return vErr
	}
	if !resource.AccessAllowed(category) {
		return ErrUnauthorized
	}
	return nil
}

func validateRequester(requester RequesterInput, vErr *ValidationError) {
	if strings.TrimSpace(requester.ID) == "" {
		vErr.add("requester_id", "requester id is required")
	}
	if strings.TrimSpace(requester.Name) == "" {
		vErr.add("requester_name", "requester name is required")
	}
	email := strings.TrimSpace(requester.Email)
	if email == "" {
		vErr.add("requester_email", "requester email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("requester_email", "must be a valid email address")
	}
	if strings.TrimSpace(requester.Category) == "" {
		vErr.add("requester_category", "requester category is required")
	}
}

// normalizeBlocks validates, de-duplicates and orders the requested blocks.
// Exceeding the per-request cap is reported separately from field errors so
// callers can surface the configured limit.
func normalizeBlocks(blocks []timeblock.Block, maxBlocks int, vErr *ValidationError) ([]timeblock.Block, error) {
	if len(blocks) == 0 {
		vErr.add("blocks", "at least one time block is required")
		return nil, nil
	}

	seen := make(map[timeblock.Block]struct{}, len(blocks))
	normalized := make([]timeblock.Block, 0, len(blocks))
	for _, block := range blocks {
		if !block.Valid() {
			vErr.add("blocks", fmt.Sprintf("block %d is out of range", int(block)))
			return nil, nil
		}
		if _, ok := seen[block]; ok {
			continue
		}
		seen[block] = struct{}{}
		normalized = append(normalized, block)
	}
	slices.Sort(normalized)

	if len(normalized) > maxBlocks {
		return nil, &TooManyBlocksError{Requested: len(normalized), Max: maxBlocks}
	}
	return normalized, nil
}

// reservationEnd returns the wall-clock end of the instance's last block.
func reservationEnd(reservation Reservation) time.Time {
	var last timeblock.Block
	for _, block := range reservation.Blocks {
		if block > last {
			last = block
		}
	}
	if !last.Valid() {
		return reservation.Date
	}
	_, end := timeblock.Window(last)
	return reservation.Date.Add(end)
}

func toSchedulerReservations(reservations []Reservation) []scheduler.Reservation {
	out := make([]scheduler.Reservation, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, scheduler.Reservation{
			ID:         reservation.ID,
			ResourceID: reservation.ResourceID,
			Date:       reservation.Date,
			Blocks:     reservation.Blocks,
		})
	}
	return out
}

func mapExpansionError(err error) error {
	switch {
	case errors.Is(err, recurrence.ErrAmbiguousRequest):
		return ErrAmbiguousRequest
	case errors.Is(err, recurrence.ErrEmptyExpansion):
		return ErrEmptyExpansion
	}
	var dateErr *recurrence.InvalidDateError
	if errors.As(err, &dateErr) {
		return &InvalidDateError{Date: dateErr.Date, Reason: dateErr.Reason}
	}
	return err
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrStaleStatus) {
		return &InvalidTransitionError{}
	}
	var conflict *persistence.SlotConflictError
	if errors.As(err, &conflict) {
		return &SlotConflictError{
			ResourceID: conflict.ResourceID,
			Date:       conflict.Date,
			Block:      conflict.Block,
		}
	}
	return err
}
