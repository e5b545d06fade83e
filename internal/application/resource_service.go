package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/lab-scheduler/internal/persistence"
)

// ResourceRepository captures the persistence operations needed by the service.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) (Resource, error)
	GetResource(ctx context.Context, id int) (Resource, error)
	UpdateResource(ctx context.Context, resource Resource) (Resource, error)
	DeleteResource(ctx context.Context, id int) error
	ListResources(ctx context.Context) ([]Resource, error)
}

// ResourceService orchestrates validation, authorization, and persistence
// for the lab computer catalog.
type ResourceService struct {
	resources ResourceRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewResourceService constructs a resource service with the provided dependencies.
func NewResourceService(resources ResourceRepository, now func() time.Time) *ResourceService {
	return NewResourceServiceWithLogger(resources, now, nil)
}

// NewResourceServiceWithLogger constructs a resource service with a specified logger.
func NewResourceServiceWithLogger(resources ResourceRepository, now func() time.Time, logger *slog.Logger) *ResourceService {
	if now == nil {
		now = time.Now
	}
	return &ResourceService{resources: resources, now: now, logger: defaultLogger(logger)}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource validates input and persists a new catalog entry for administrators.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateResourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	enabled := true
	if params.Input.Enabled != nil {
		enabled = *params.Input.Enabled
	}

	resource = Resource{
		Name:              strings.TrimSpace(params.Input.Name),
		Hardware:          strings.TrimSpace(params.Input.Hardware),
		Software:          strings.TrimSpace(params.Input.Software),
		Enabled:           enabled,
		AllowedCategories: normalizeCategories(params.Input.AllowedCategories),
		CreatedAt:         s.now(),
	}
	resource.UpdatedAt = resource.CreatedAt

	if s.resources == nil {
		return
	}

	var persisted Resource
	persisted, err = s.resources.CreateResource(ctx, resource)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	resource = persisted
	return
}

// UpdateResource validates input and updates an existing catalog entry for administrators.
func (s *ResourceService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.resources == nil {
		err = fmt.Errorf("resource repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource updated")
	}()

	var existing Resource
	existing, err = s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	vErr := validateResourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Hardware = strings.TrimSpace(params.Input.Hardware)
	updated.Software = strings.TrimSpace(params.Input.Software)
	if params.Input.Enabled != nil {
		updated.Enabled = *params.Input.Enabled
	}
	updated.AllowedCategories = normalizeCategories(params.Input.AllowedCategories)
	updated.UpdatedAt = s.now()

	resource, err = s.resources.UpdateResource(ctx, updated)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	return
}

// GetResource returns a single catalog entry for any authenticated user.
func (s *ResourceService) GetResource(ctx context.Context, principal Principal, id int) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ResourceService is nil")
	}
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource repository not configured")
	}

	resource, err := s.resources.GetResource(ctx, id)
	if err != nil {
		return Resource{}, mapResourceRepoError(err)
	}
	return resource, nil
}

// DeleteResource removes a catalog entry when requested by an administrator.
// Entries referenced by reservations cannot be removed.
func (s *ResourceService) DeleteResource(ctx context.Context, principal Principal, id int) error {
	if s == nil {
		return fmt.Errorf("ResourceService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.resources == nil {
		return fmt.Errorf("resource repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteResource",
		"principal_id", principal.UserID,
		"resource_id", id,
	)

	if err := s.resources.DeleteResource(ctx, id); err != nil {
		err = mapResourceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete resource", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "resource deleted")
	return nil
}

// ListResources returns the catalog for any authenticated user.
func (s *ResourceService) ListResources(ctx context.Context, principal Principal) (resources []Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}
	if s.resources == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListResources",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list resources", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(resources)).InfoContext(ctx, "resources listed")
	}()

	var raw []Resource
	raw, err = s.resources.ListResources(ctx)
	if err != nil {
		err = mapResourceRepoError(err)
		return
	}

	resources = make([]Resource, len(raw))
	copy(resources, raw)

	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })

	return
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	for _, category := range input.AllowedCategories {
		if strings.TrimSpace(category) == "" {
			vErr.add("allowed_categories", "categories must not be blank")
			break
		}
	}

	return vErr
}

func normalizeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, category := range categories {
		trimmed := strings.TrimSpace(category)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func mapResourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrResourceInUse) {
		return ErrResourceInUse
	}
	return err
}
