package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/logging"
)

var (
	errBadRequestBody       = errors.New("request body is not valid JSON")
	errInvalidReservationID = errors.New("a reservation id is required")
	errInvalidGroupID       = errors.New("a reservation group id is required")
	errInvalidResourceID    = errors.New("a numeric resource id is required")
	errInvalidDatePath      = errors.New("the date must be formatted YYYY-MM-DD")
)

// Stable error codes of the API envelope.
const (
	codeValidation        = "VALIDATION"
	codeInvalidDate       = "INVALID_DATE"
	codeEmptyExpansion    = "EMPTY_EXPANSION"
	codeAmbiguousRequest  = "AMBIGUOUS_REQUEST"
	codeTooManyBlocks     = "TOO_MANY_BLOCKS"
	codeReasonTooShort    = "REASON_TOO_SHORT"
	codeSlotConflict      = "SLOT_CONFLICT"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeNotFound          = "NOT_FOUND"
	codeResourceInUse     = "RESOURCE_IN_USE"
	codeForbidden         = "FORBIDDEN"
	codeBadRequest        = "BAD_REQUEST"
	codeInternal          = "INTERNAL"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	code := codeBadRequest
	switch status {
	case http.StatusNotFound:
		code = codeNotFound
	case http.StatusForbidden:
		code = codeForbidden
	case http.StatusInternalServerError:
		code = codeInternal
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleServiceError translates application errors into the API envelope.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, payload := serviceErrorResponse(err)
	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(ctx, w, status, payload)
}

func serviceErrorResponse(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: "unknown error"}
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden, errorResponse{
			ErrorCode: codeForbidden,
			Message:   "you are not permitted to perform this operation",
		}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{
			ErrorCode: codeNotFound,
			Message:   "the requested record does not exist",
		}
	case errors.Is(err, application.ErrAmbiguousRequest):
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeAmbiguousRequest,
			Message:   "supply either explicit dates or a weekly pattern, not both",
		}
	case errors.Is(err, application.ErrEmptyExpansion):
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeEmptyExpansion,
			Message:   "the recurrence pattern produced no reservable dates",
		}
	case errors.Is(err, application.ErrReasonTooShort):
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeReasonTooShort,
			Message:   "a rejection reason of at least 10 characters is required",
		}
	case errors.Is(err, application.ErrResourceInUse):
		return http.StatusConflict, errorResponse{
			ErrorCode: codeResourceInUse,
			Message:   "the resource still has reservations; disable it instead",
		}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeValidation,
			Message:   "the request contains invalid fields",
			Errors:    vErr.FieldErrors,
		}
	}
	var dateErr *application.InvalidDateError
	if errors.As(err, &dateErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeInvalidDate,
			Message:   dateErr.Reason,
			Errors:    map[string]string{"date": dateErr.Date.Format("2006-01-02")},
		}
	}
	var blocksErr *application.TooManyBlocksError
	if errors.As(err, &blocksErr) {
		return http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: codeTooManyBlocks,
			Message:   blocksErr.Error(),
		}
	}
	var conflictErr *application.SlotConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict, errorResponse{
			ErrorCode: codeSlotConflict,
			Message:   "the requested slot is already reserved",
			Conflict: &slotConflictDTO{
				ResourceID: conflictErr.ResourceID,
				Date:       conflictErr.Date.Format("2006-01-02"),
				Block:      conflictErr.Block.String(),
			},
		}
	}
	var transitionErr *application.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, errorResponse{
			ErrorCode: codeInvalidTransition,
			Message:   transitionErr.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		ErrorCode: codeInternal,
		Message:   "an internal error occurred",
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *slotConflictDTO  `json:"conflict,omitempty"`
}

type slotConflictDTO struct {
	ResourceID int    `json:"resource_id"`
	Date       string `json:"date"`
	Block      string `json:"block"`
}
