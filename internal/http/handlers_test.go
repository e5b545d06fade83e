package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/timeblock"
)

type stubReservationService struct {
	createFn          func(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error)
	getFn             func(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	listFn            func(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	availabilityFn    func(ctx context.Context, params application.AvailabilityParams) (application.DayAvailability, error)
	approveFn         func(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	rejectFn          func(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	cancelFn          func(ctx context.Context, params application.DecisionParams) (application.Reservation, error)
	bulkFn            func(ctx context.Context, params application.BulkDecisionParams) (application.BulkResult, error)
	completeElapsedFn func(ctx context.Context, principal application.Principal) (int, error)
	deleteFn          func(ctx context.Context, principal application.Principal, id string) error
}

func (s *stubReservationService) CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error) {
	return s.createFn(ctx, params)
}

func (s *stubReservationService) GetReservation(ctx context.Context, principal application.Principal, id string) (application.Reservation, error) {
	return s.getFn(ctx, principal, id)
}

func (s *stubReservationService) ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
	return s.listFn(ctx, params)
}

func (s *stubReservationService) Availability(ctx context.Context, params application.AvailabilityParams) (application.DayAvailability, error) {
	return s.availabilityFn(ctx, params)
}

func (s *stubReservationService) Approve(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
	return s.approveFn(ctx, params)
}

func (s *stubReservationService) Reject(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
	return s.rejectFn(ctx, params)
}

func (s *stubReservationService) Cancel(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
	return s.cancelFn(ctx, params)
}

func (s *stubReservationService) BulkDecide(ctx context.Context, params application.BulkDecisionParams) (application.BulkResult, error) {
	return s.bulkFn(ctx, params)
}

func (s *stubReservationService) CompleteElapsed(ctx context.Context, principal application.Principal) (int, error) {
	return s.completeElapsedFn(ctx, principal)
}

func (s *stubReservationService) DeleteReservation(ctx context.Context, principal application.Principal, id string) error {
	return s.deleteFn(ctx, principal, id)
}

type stubResourceService struct {
	createFn func(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	updateFn func(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error)
	getFn    func(ctx context.Context, principal application.Principal, id int) (application.Resource, error)
	deleteFn func(ctx context.Context, principal application.Principal, id int) error
	listFn   func(ctx context.Context, principal application.Principal) ([]application.Resource, error)
}

func (s *stubResourceService) CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error) {
	return s.createFn(ctx, params)
}

func (s *stubResourceService) UpdateResource(ctx context.Context, params application.UpdateResourceParams) (application.Resource, error) {
	return s.updateFn(ctx, params)
}

func (s *stubResourceService) GetResource(ctx context.Context, principal application.Principal, id int) (application.Resource, error) {
	return s.getFn(ctx, principal, id)
}

func (s *stubResourceService) DeleteResource(ctx context.Context, principal application.Principal, id int) error {
	return s.deleteFn(ctx, principal, id)
}

func (s *stubResourceService) ListResources(ctx context.Context, principal application.Principal) ([]application.Resource, error) {
	return s.listFn(ctx, principal)
}

func newTestRouter(reservations *stubReservationService, resources *stubResourceService) http.Handler {
	cfg := RouterConfig{}
	if reservations != nil {
		cfg.Reservations = NewReservationHandler(reservations, nil)
	}
	if resources != nil {
		cfg.Resources = NewResourceHandler(resources, nil)
	}
	return NewRouter(cfg)
}

func sampleReservation() application.Reservation {
	return application.Reservation{
		ID:                "res-1",
		RequesterID:       "s1024",
		RequesterName:     "Mika Tanaka",
		RequesterEmail:    "mika@example.edu",
		RequesterCategory: "student",
		Purpose:           "coursework",
		Date:              time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		ResourceID:        3,
		Blocks:            []timeblock.Block{timeblock.Block2, timeblock.Block3},
		Status:            application.StatusPending,
		CreatedAt:         time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
	}
}

func decodeError(t *testing.T, body *bytes.Buffer) errorResponse {
	t.Helper()
	var envelope errorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope
}

func TestCreateReservationEndpoint(t *testing.T) {
	group := "grp-1"
	service := &stubReservationService{
		createFn: func(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error) {
			require.Equal(t, 3, params.Input.ResourceID)
			require.Equal(t, []timeblock.Block{timeblock.Block2, timeblock.Block3}, params.Input.Blocks)
			require.NotNil(t, params.Input.Pattern)
			require.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, params.Input.Pattern.Weekdays)
			first := sampleReservation()
			first.GroupID = &group
			return application.CreateReservationResult{Reservations: []application.Reservation{first}, GroupID: &group}, nil
		},
	}
	router := newTestRouter(service, nil)

	body := `{
		"requester": {"id": "s1024", "name": "Mika Tanaka", "email": "mika@example.edu", "category": "student"},
		"resource_id": 3,
		"blocks": ["BLOCK_2", "BLOCK_3"],
		"purpose": "coursework",
		"pattern": {"start_date": "2026-03-02", "weekdays": ["monday", "wednesday"], "weeks": 2}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var response createReservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Reservations, 1)
	require.NotNil(t, response.GroupID)
	assert.Equal(t, group, *response.GroupID)
	assert.Equal(t, []string{"BLOCK_2", "BLOCK_3"}, response.Reservations[0].Blocks)
}

func TestCreateReservationBadBody(t *testing.T) {
	router := newTestRouter(&stubReservationService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeBadRequest, decodeError(t, rec.Body).ErrorCode)
}

func TestCreateReservationSlotConflict(t *testing.T) {
	service := &stubReservationService{
		createFn: func(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error) {
			return application.CreateReservationResult{}, &application.SlotConflictError{
				ResourceID: 3,
				Date:       time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
				Block:      timeblock.Block2,
			}
		},
	}
	router := newTestRouter(service, nil)

	body := `{
		"requester": {"id": "s1024", "name": "Mika", "email": "m@example.edu", "category": "student"},
		"resource_id": 3,
		"blocks": ["BLOCK_2"],
		"purpose": "coursework",
		"dates": ["2026-03-04"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeError(t, rec.Body)
	assert.Equal(t, codeSlotConflict, envelope.ErrorCode)
	require.NotNil(t, envelope.Conflict)
	assert.Equal(t, 3, envelope.Conflict.ResourceID)
	assert.Equal(t, "2026-03-04", envelope.Conflict.Date)
	assert.Equal(t, "BLOCK_2", envelope.Conflict.Block)
}

func TestCreateReservationLogsOutcome(t *testing.T) {
	group := "group-1"
	service := &stubReservationService{
		createFn: func(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error) {
			return application.CreateReservationResult{
				Reservations: []application.Reservation{sampleReservation(), sampleReservation()},
				GroupID:      &group,
			}, nil
		},
	}

	var logs bytes.Buffer
	router := NewRouter(RouterConfig{
		Reservations: NewReservationHandler(service, nil),
		Logger:       slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	body := `{
		"requester": {"id": "s1024", "name": "Mika", "email": "m@example.edu", "category": "student"},
		"resource_id": 3,
		"blocks": ["BLOCK_2"],
		"purpose": "coursework",
		"dates": ["2026-03-04", "2026-03-05"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, logs.String(), "reservation request accepted")
	assert.Contains(t, logs.String(), `"operation":"create"`)
	assert.Contains(t, logs.String(), `"group_id":"group-1"`)
}

func TestCreateReservationUnknownResource(t *testing.T) {
	service := &stubReservationService{
		createFn: func(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error) {
			return application.CreateReservationResult{}, fmt.Errorf("resource %d: %w", params.Input.ResourceID, application.ErrNotFound)
		},
	}
	router := newTestRouter(service, nil)

	body := `{
		"requester": {"id": "s1024", "name": "Mika", "email": "m@example.edu", "category": "student"},
		"resource_id": 99,
		"blocks": ["BLOCK_1"],
		"purpose": "coursework",
		"dates": ["2026-03-04"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/reservations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeError(t, rec.Body)
	assert.Equal(t, codeNotFound, envelope.ErrorCode)
}

func TestAvailabilityEndpoint(t *testing.T) {
	service := &stubReservationService{
		availabilityFn: func(ctx context.Context, params application.AvailabilityParams) (application.DayAvailability, error) {
			assert.Equal(t, "student", params.Category)
			return application.DayAvailability{
				Date: params.Date,
				Resources: []application.ResourceAvailability{{
					Resource: application.Resource{ID: 1, Name: "lab-pc-01", Enabled: true},
					Blocks: []application.BlockAvailability{{
						Block: timeblock.Block1, StartTime: "07:00", EndTime: "08:45", Available: true,
					}},
				}},
			}, nil
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/2026-03-04?category=student", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var grid dayAvailabilityDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
	assert.Equal(t, "2026-03-04", grid.Date)
	require.Len(t, grid.Resources, 1)
	assert.Equal(t, "BLOCK_1", grid.Resources[0].Blocks[0].Block)
}

func TestAvailabilityRejectsMalformedDate(t *testing.T) {
	router := newTestRouter(&stubReservationService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/04-03-2026", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityWeekend(t *testing.T) {
	service := &stubReservationService{
		availabilityFn: func(ctx context.Context, params application.AvailabilityParams) (application.DayAvailability, error) {
			return application.DayAvailability{}, &application.InvalidDateError{Date: params.Date, Reason: "Saturday is not a reservable weekday"}
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/2026-03-07", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, codeInvalidDate, decodeError(t, rec.Body).ErrorCode)
}

func TestTransitionEndpoint(t *testing.T) {
	service := &stubReservationService{
		approveFn: func(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
			assert.Equal(t, "admin1", params.Principal.UserID)
			assert.True(t, params.Principal.IsAdmin)
			approved := sampleReservation()
			approved.Status = application.StatusApproved
			return approved, nil
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", bytes.NewBufferString(`{"status": "approved", "actor_id": "admin1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dto reservationDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "approved", dto.Status)
}

func TestTransitionUnknownStatus(t *testing.T) {
	router := newTestRouter(&stubReservationService{}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", bytes.NewBufferString(`{"status": "archived"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeError(t, rec.Body)
	assert.Equal(t, codeValidation, envelope.ErrorCode)
	assert.Contains(t, envelope.Errors, "status")
}

func TestTransitionInvalid(t *testing.T) {
	service := &stubReservationService{
		approveFn: func(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
			return application.Reservation{}, &application.InvalidTransitionError{
				From: application.StatusRejected,
				To:   application.StatusApproved,
			}
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", bytes.NewBufferString(`{"status": "approved", "actor_id": "admin1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeInvalidTransition, decodeError(t, rec.Body).ErrorCode)
}

func TestTransitionReasonTooShort(t *testing.T) {
	service := &stubReservationService{
		rejectFn: func(ctx context.Context, params application.DecisionParams) (application.Reservation, error) {
			return application.Reservation{}, application.ErrReasonTooShort
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", bytes.NewBufferString(`{"status": "rejected", "actor_id": "admin1", "reason": "no"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, codeReasonTooShort, decodeError(t, rec.Body).ErrorCode)
}

func TestBulkTransitionEndpoint(t *testing.T) {
	service := &stubReservationService{
		bulkFn: func(ctx context.Context, params application.BulkDecisionParams) (application.BulkResult, error) {
			assert.Equal(t, "grp-1", params.GroupID)
			assert.Equal(t, application.BulkApprove, params.Action)
			assert.Equal(t, []string{"m1", "m2"}, params.IDs)

			approved := sampleReservation()
			approved.ID = "m1"
			approved.Status = application.StatusApproved
			return application.BulkResult{
				Outcomes: []application.BulkOutcome{
					{ReservationID: "m1", Reservation: &approved},
					{ReservationID: "m2", Err: &application.SlotConflictError{ResourceID: 3, Date: approved.Date, Block: timeblock.Block2}},
				},
				Succeeded: 1,
				Failed:    1,
			}, nil
		},
	}
	router := newTestRouter(service, nil)

	body := `{"ids": ["m1", "m2"], "status": "approved", "actor_id": "admin1"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reservation-groups/grp-1/bulk", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response bulkTransitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Succeeded)
	assert.Equal(t, 1, response.Failed)
	require.Len(t, response.Results, 2)
	assert.True(t, response.Results[0].Succeeded)
	assert.False(t, response.Results[1].Succeeded)
	assert.Equal(t, codeSlotConflict, response.Results[1].ErrorCode)
}

func TestDeleteReservationEndpoint(t *testing.T) {
	service := &stubReservationService{
		deleteFn: func(ctx context.Context, principal application.Principal, id string) error {
			if !principal.IsAdmin {
				return application.ErrUnauthorized
			}
			return nil
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/reservations/res-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/reservations/res-1", nil)
	req.Header.Set(actorIDHeader, "admin1")
	req.Header.Set(actorRoleHeader, "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListReservationsEndpoint(t *testing.T) {
	service := &stubReservationService{
		listFn: func(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
			require.NotNil(t, params.Status)
			assert.Equal(t, application.StatusPending, *params.Status)
			require.NotNil(t, params.Date)
			require.NotNil(t, params.GroupID)
			assert.Equal(t, "grp-1", *params.GroupID)
			assert.Equal(t, "s1024", params.Principal.UserID)
			return []application.Reservation{sampleReservation()}, nil
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reservations?status=pending&date=2026-03-04&group_id=grp-1", nil)
	req.Header.Set(actorIDHeader, "s1024")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response listReservationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Reservations, 1)
	assert.Equal(t, "res-1", response.Reservations[0].ID)
}

func TestCompleteElapsedEndpoint(t *testing.T) {
	service := &stubReservationService{
		completeElapsedFn: func(ctx context.Context, principal application.Principal) (int, error) {
			if !principal.IsAdmin {
				return 0, application.ErrUnauthorized
			}
			return 2, nil
		},
	}
	router := newTestRouter(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/complete-elapsed", nil)
	req.Header.Set(actorIDHeader, "admin1")
	req.Header.Set(actorRoleHeader, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response completeElapsedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Completed)
}

func TestResourceEndpoints(t *testing.T) {
	created := application.Resource{ID: 1, Name: "lab-pc-01", Enabled: true}
	service := &stubResourceService{
		createFn: func(ctx context.Context, params application.CreateResourceParams) (application.Resource, error) {
			if !params.Principal.IsAdmin {
				return application.Resource{}, application.ErrUnauthorized
			}
			return created, nil
		},
		listFn: func(ctx context.Context, principal application.Principal) ([]application.Resource, error) {
			return []application.Resource{created}, nil
		},
		deleteFn: func(ctx context.Context, principal application.Principal, id int) error {
			return application.ErrResourceInUse
		},
	}
	router := newTestRouter(nil, service)

	// Creation without admin identity is refused.
	req := httptest.NewRequest(http.MethodPost, "/api/resources", bytes.NewBufferString(`{"name": "lab-pc-01"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/resources", bytes.NewBufferString(`{"name": "lab-pc-01"}`))
	req.Header.Set(actorIDHeader, "admin1")
	req.Header.Set(actorRoleHeader, "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/resources", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResponse listResourcesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResponse))
	require.Len(t, listResponse.Resources, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/resources/1", nil)
	req.Header.Set(actorIDHeader, "admin1")
	req.Header.Set(actorRoleHeader, "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeResourceInUse, decodeError(t, rec.Body).ErrorCode)

	req = httptest.NewRequest(http.MethodDelete, "/api/resources/not-a-number", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	healthy := NewRouter(RouterConfig{Health: pingerFunc(func(ctx context.Context) error { return nil })})
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	degraded := NewRouter(RouterConfig{Health: pingerFunc(func(ctx context.Context) error { return errors.New("closed") })})
	rec = httptest.NewRecorder()
	degraded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
