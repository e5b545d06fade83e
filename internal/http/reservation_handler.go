package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/timeblock"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error)
	GetReservation(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	Availability(ctx context.Context, params application.AvailabilityParams) (application.DayAvailability, error)
	Approve(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	Reject(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	Cancel(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	BulkDecide(ctx context.Context, params application.BulkDecisionParams) (application.BulkResult, error)
	CompleteElapsed(ctx context.Context, principal application.Principal) (int, error)
	DeleteReservation(ctx context.Context, principal application.Principal, id string) error
}

// ReservationHandler exposes the reservation workflow over HTTP.
type ReservationHandler struct {
	service   reservationService
	responder responder
}

// NewReservationHandler constructs a reservation handler.
func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(logger)}
}

// Create handles POST /api/reservations.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if principal.UserID == "" {
		// Unauthenticated submissions act as the requester themself.
		principal = application.Principal{UserID: input.Requester.ID}
	}

	result, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := handlerLogger(r.Context(), h.responder.logger, "reservation", "create")
	attrs := []any{"resource_id", input.ResourceID, "instances", len(result.Reservations)}
	if result.GroupID != nil {
		attrs = append(attrs, "group_id", *result.GroupID)
	}
	logger.InfoContext(r.Context(), "reservation request accepted", attrs...)

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createReservationResponse{
		Reservations: toReservationDTOs(result.Reservations),
		GroupID:      result.GroupID,
	})
}

// Get handles GET /api/reservations/{id}.
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.GetReservation(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// List handles GET /api/reservations.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := application.ListReservationsParams{Principal: principal}

	query := r.URL.Query()
	if value := strings.TrimSpace(query.Get("status")); value != "" {
		status := application.Status(value)
		params.Status = &status
	}
	if value := strings.TrimSpace(query.Get("date")); value != "" {
		date, err := time.Parse("2006-01-02", value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDatePath)
			return
		}
		params.Date = &date
	}
	if value := strings.TrimSpace(query.Get("group_id")); value != "" {
		params.GroupID = &value
	}
	if value := strings.TrimSpace(query.Get("user_id")); value != "" {
		params.RequesterID = &value
	}
	if value := strings.TrimSpace(query.Get("resource_id")); value != "" {
		id, err := strconv.Atoi(value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
			return
		}
		params.ResourceID = &id
	}

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

// Transition handles PATCH /api/reservations/{id}.
func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	target := application.Status(strings.TrimSpace(req.Status))
	principal := h.principalOrActor(r.Context(), req.ActorID, target)
	params := application.DecisionParams{
		Principal:     principal,
		ReservationID: id,
		Reason:        req.Reason,
	}

	var reservation application.Reservation
	var err error
	switch target {
	case application.StatusApproved:
		reservation, err = h.service.Approve(r.Context(), params)
	case application.StatusRejected:
		reservation, err = h.service.Reject(r.Context(), params)
	case application.StatusCancelled:
		reservation, err = h.service.Cancel(r.Context(), params)
	default:
		vErr := &application.ValidationError{FieldErrors: map[string]string{
			"status": "status must be approved, rejected, or cancelled",
		}}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// BulkTransition handles PATCH /api/reservation-groups/{groupID}/bulk.
func (h *ReservationHandler) BulkTransition(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID := strings.TrimSpace(chi.URLParam(r, "groupID"))
	if groupID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	var req bulkTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	target := application.Status(strings.TrimSpace(req.Status))
	var action application.BulkAction
	switch target {
	case application.StatusApproved:
		action = application.BulkApprove
	case application.StatusRejected:
		action = application.BulkReject
	case application.StatusCancelled:
		action = application.BulkCancel
	default:
		vErr := &application.ValidationError{FieldErrors: map[string]string{
			"status": "status must be approved, rejected, or cancelled",
		}}
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	result, err := h.service.BulkDecide(r.Context(), application.BulkDecisionParams{
		Principal: h.principalOrActor(r.Context(), req.ActorID, target),
		GroupID:   groupID,
		IDs:       req.IDs,
		Action:    action,
		Reason:    req.Reason,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.responder.logger, "reservation", "bulk_transition").InfoContext(
		r.Context(), "group decision applied",
		"group_id", groupID,
		"status", string(target),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBulkResponse(result))
}

// Delete handles DELETE /api/reservations/{id}.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteReservation(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// CompleteElapsed handles POST /api/admin/complete-elapsed.
func (h *ReservationHandler) CompleteElapsed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	completed, err := h.service.CompleteElapsed(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.responder.logger, "reservation", "complete_elapsed").InfoContext(
		r.Context(), "completion sweep finished", "completed", completed)

	h.responder.writeJSON(r.Context(), w, http.StatusOK, completeElapsedResponse{Completed: completed})
}

// Availability handles GET /api/availability/{date}.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	raw := strings.TrimSpace(chi.URLParam(r, "date"))
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDatePath)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	grid, err := h.service.Availability(r.Context(), application.AvailabilityParams{
		Principal: principal,
		Date:      date,
		Category:  strings.TrimSpace(r.URL.Query().Get("category")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDayAvailabilityDTO(grid))
}

// principalOrActor resolves the caller identity for decision endpoints. The
// gateway headers win; without them the body's actor_id identifies the
// caller, trusted as an administrator for approve and reject since those
// routes only exist on the admin side of the portal.
func (h *ReservationHandler) principalOrActor(ctx context.Context, actorID string, target application.Status) application.Principal {
	if principal, ok := PrincipalFromContext(ctx); ok && principal.UserID != "" {
		return principal
	}
	actorID = strings.TrimSpace(actorID)
	return application.Principal{
		UserID:  actorID,
		IsAdmin: actorID != "" && target != application.StatusCancelled,
	}
}

type requesterDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Category string `json:"category"`
}

type patternRequest struct {
	StartDate string   `json:"start_date"`
	Weekdays  []string `json:"weekdays"`
	Weeks     int      `json:"weeks"`
}

type reservationRequest struct {
	Requester  requesterDTO    `json:"requester"`
	ResourceID int             `json:"resource_id"`
	Blocks     []string        `json:"blocks"`
	Software   string          `json:"software"`
	Purpose    string          `json:"purpose"`
	Dates      []string        `json:"dates"`
	Pattern    *patternRequest `json:"pattern"`
}

func (r reservationRequest) toInput() (application.ReservationInput, error) {
	blocks := make([]timeblock.Block, 0, len(r.Blocks))
	for _, raw := range r.Blocks {
		block, err := timeblock.Parse(raw)
		if err != nil {
			return application.ReservationInput{}, err
		}
		blocks = append(blocks, block)
	}

	dates := make([]time.Time, 0, len(r.Dates))
	for _, raw := range r.Dates {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
		if err != nil {
			return application.ReservationInput{}, errInvalidDatePath
		}
		dates = append(dates, date)
	}

	input := application.ReservationInput{
		Requester: application.RequesterInput{
			ID:       r.Requester.ID,
			Name:     r.Requester.Name,
			Email:    r.Requester.Email,
			Category: r.Requester.Category,
		},
		ResourceID: r.ResourceID,
		Blocks:     blocks,
		Software:   r.Software,
		Purpose:    r.Purpose,
		Dates:      dates,
	}

	if r.Pattern != nil {
		start, err := time.Parse("2006-01-02", strings.TrimSpace(r.Pattern.StartDate))
		if err != nil {
			return application.ReservationInput{}, errInvalidDatePath
		}
		weekdays, err := parseWeekdays(r.Pattern.Weekdays)
		if err != nil {
			return application.ReservationInput{}, err
		}
		input.Pattern = &application.RecurrencePattern{
			StartDate: start,
			Weekdays:  weekdays,
			Weeks:     r.Pattern.Weeks,
		}
	}

	return input, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	weekdays := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, errors.New("unknown weekday: " + name)
		}
		weekdays = append(weekdays, weekday)
	}
	return weekdays, nil
}

type transitionRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type bulkTransitionRequest struct {
	IDs     []string `json:"ids"`
	Status  string   `json:"status"`
	ActorID string   `json:"actor_id"`
	Reason  string   `json:"reason"`
}

type reservationDTO struct {
	ID           string       `json:"id"`
	Requester    requesterDTO `json:"requester"`
	Software     string       `json:"software,omitempty"`
	Purpose      string       `json:"purpose"`
	Date         string       `json:"date"`
	ResourceID   int          `json:"resource_id"`
	Blocks       []string     `json:"blocks"`
	GroupID      *string      `json:"group_id,omitempty"`
	Status       string       `json:"status"`
	DecidedBy    *string      `json:"decided_by,omitempty"`
	DecidedAt    *string      `json:"decided_at,omitempty"`
	RejectReason *string      `json:"reject_reason,omitempty"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	blocks := make([]string, 0, len(reservation.Blocks))
	for _, block := range reservation.Blocks {
		blocks = append(blocks, block.String())
	}

	dto := reservationDTO{
		ID: reservation.ID,
		Requester: requesterDTO{
			ID:       reservation.RequesterID,
			Name:     reservation.RequesterName,
			Email:    reservation.RequesterEmail,
			Category: reservation.RequesterCategory,
		},
		Software:     reservation.Software,
		Purpose:      reservation.Purpose,
		Date:         reservation.Date.Format("2006-01-02"),
		ResourceID:   reservation.ResourceID,
		Blocks:       blocks,
		GroupID:      reservation.GroupID,
		Status:       string(reservation.Status),
		DecidedBy:    reservation.DecidedBy,
		RejectReason: reservation.RejectReason,
		CreatedAt:    reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if reservation.DecidedAt != nil {
		decidedAt := reservation.DecidedAt.UTC().Format(time.RFC3339)
		dto.DecidedAt = &decidedAt
	}
	return dto
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

type createReservationResponse struct {
	Reservations []reservationDTO `json:"reservations"`
	GroupID      *string          `json:"group_id,omitempty"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type bulkOutcomeDTO struct {
	ID          string          `json:"id"`
	Succeeded   bool            `json:"succeeded"`
	Reservation *reservationDTO `json:"reservation,omitempty"`
	ErrorCode   string          `json:"error_code,omitempty"`
	Message     string          `json:"message,omitempty"`
}

type bulkTransitionResponse struct {
	Results   []bulkOutcomeDTO `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

func toBulkResponse(result application.BulkResult) bulkTransitionResponse {
	response := bulkTransitionResponse{
		Results:   make([]bulkOutcomeDTO, 0, len(result.Outcomes)),
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
	for _, outcome := range result.Outcomes {
		dto := bulkOutcomeDTO{ID: outcome.ReservationID, Succeeded: outcome.Err == nil}
		if outcome.Reservation != nil {
			reservation := toReservationDTO(*outcome.Reservation)
			dto.Reservation = &reservation
		}
		if outcome.Err != nil {
			_, envelope := serviceErrorResponse(outcome.Err)
			dto.ErrorCode = envelope.ErrorCode
			dto.Message = envelope.Message
		}
		response.Results = append(response.Results, dto)
	}
	return response
}

type completeElapsedResponse struct {
	Completed int `json:"completed"`
}

type blockAvailabilityDTO struct {
	Block     string `json:"block"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

type resourceAvailabilityDTO struct {
	Resource resourceDTO            `json:"resource"`
	Blocks   []blockAvailabilityDTO `json:"blocks"`
}

type dayAvailabilityDTO struct {
	Date      string                    `json:"date"`
	Resources []resourceAvailabilityDTO `json:"resources"`
}

func toDayAvailabilityDTO(grid application.DayAvailability) dayAvailabilityDTO {
	dto := dayAvailabilityDTO{
		Date:      grid.Date.Format("2006-01-02"),
		Resources: make([]resourceAvailabilityDTO, 0, len(grid.Resources)),
	}
	for _, entry := range grid.Resources {
		blocks := make([]blockAvailabilityDTO, 0, len(entry.Blocks))
		for _, block := range entry.Blocks {
			blocks = append(blocks, blockAvailabilityDTO{
				Block:     block.Block.String(),
				StartTime: block.StartTime,
				EndTime:   block.EndTime,
				Available: block.Available,
			})
		}
		dto.Resources = append(dto.Resources, resourceAvailabilityDTO{
			Resource: toResourceDTO(entry.Resource),
			Blocks:   blocks,
		})
	}
	return dto
}
