package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/lab-scheduler/internal/application"
)

type resourceService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	GetResource(ctx context.Context, principal application.Principal, id int) (application.Resource, error)
	DeleteResource(ctx context.Context, principal application.Principal, id int) error
	ListResources(ctx context.Context, principal application.Principal) ([]application.Resource, error)
}

// ResourceHandler exposes the lab computer catalog over HTTP.
type ResourceHandler struct {
	service   resourceService
	responder responder
}

// NewResourceHandler constructs a resource handler.
func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, responder: newResponder(logger)}
}

// List handles GET /api/resources.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resources, err := h.service.ListResources(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{
		Resources: toResourceDTOs(resources),
	})
}

// Get handles GET /api/resources/{id}.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resource, err := h.service.GetResource(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

// Create handles POST /api/resources.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toResourceDTO(resource))
}

// Update handles PUT /api/resources/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: id,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

// Delete handles DELETE /api/resources/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.resourceID(w, r)
	if !ok {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteResource(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ResourceHandler) resourceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return 0, false
	}
	return id, true
}

type resourceRequest struct {
	Name              string   `json:"name"`
	Hardware          string   `json:"hardware"`
	Software          string   `json:"software"`
	Enabled           *bool    `json:"enabled"`
	AllowedCategories []string `json:"allowed_categories"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	return application.ResourceInput{
		Name:              r.Name,
		Hardware:          r.Hardware,
		Software:          r.Software,
		Enabled:           r.Enabled,
		AllowedCategories: append([]string(nil), r.AllowedCategories...),
	}
}

type resourceDTO struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Hardware          string   `json:"hardware,omitempty"`
	Software          string   `json:"software,omitempty"`
	Enabled           bool     `json:"enabled"`
	AllowedCategories []string `json:"allowed_categories,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

func toResourceDTO(resource application.Resource) resourceDTO {
	return resourceDTO{
		ID:                resource.ID,
		Name:              resource.Name,
		Hardware:          resource.Hardware,
		Software:          resource.Software,
		Enabled:           resource.Enabled,
		AllowedCategories: append([]string(nil), resource.AllowedCategories...),
		CreatedAt:         resource.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         resource.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toResourceDTOs(resources []application.Resource) []resourceDTO {
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}
