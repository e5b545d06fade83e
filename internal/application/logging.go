package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/lab-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and typed errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAmbiguousRequest):
		return "ambiguous_request"
	case errors.Is(err, ErrEmptyExpansion):
		return "empty_expansion"
	case errors.Is(err, ErrReasonTooShort):
		return "reason_too_short"
	case errors.Is(err, ErrResourceInUse):
		return "resource_in_use"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var dateErr *InvalidDateError
	if errors.As(err, &dateErr) {
		return "invalid_date"
	}
	var blocksErr *TooManyBlocksError
	if errors.As(err, &blocksErr) {
		return "too_many_blocks"
	}
	var conflictErr *SlotConflictError
	if errors.As(err, &conflictErr) {
		return "slot_conflict"
	}
	var transitionErr *InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return "invalid_transition"
	}

	return "unexpected"
}
