package main

import (
	"context"
	"time"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/timeblock"
)

// resourceRepositoryAdapter bridges the application's catalog interfaces to
// the persistence layer. It satisfies both application.ResourceRepository and
// application.ResourceCatalog.
type resourceRepositoryAdapter struct {
	repo persistence.ResourceRepository
}

func newResourceRepositoryAdapter(repo persistence.ResourceRepository) *resourceRepositoryAdapter {
	return &resourceRepositoryAdapter{repo: repo}
}

func (a *resourceRepositoryAdapter) CreateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	stored, err := a.repo.CreateResource(ctx, toPersistenceResource(resource))
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) GetResource(ctx context.Context, id int) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) UpdateResource(ctx context.Context, resource application.Resource) (application.Resource, error) {
	stored, err := a.repo.UpdateResource(ctx, toPersistenceResource(resource))
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceRepositoryAdapter) DeleteResource(ctx context.Context, id int) error {
	return a.repo.DeleteResource(ctx, id)
}

func (a *resourceRepositoryAdapter) ListResources(ctx context.Context) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

// reservationRepositoryAdapter bridges application.ReservationRepository to
// the persistence layer.
type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservations(ctx context.Context, reservations []application.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	models := make([]persistence.Reservation, 0, len(reservations))
	for _, reservation := range reservations {
		models = append(models, toPersistenceReservation(reservation))
	}
	return a.repo.CreateReservations(ctx, models)
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, toPersistenceFilter(filter))
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

func (a *reservationRepositoryAdapter) TransitionReservation(ctx context.Context, change application.StatusChange) (application.Reservation, error) {
	from := make([]persistence.Status, 0, len(change.From))
	for _, status := range change.From {
		from = append(from, persistence.Status(status))
	}
	stored, err := a.repo.TransitionReservation(ctx, persistence.TransitionParams{
		ID:      change.ID,
		From:    from,
		To:      persistence.Status(change.To),
		ActorID: change.ActorID,
		Reason:  change.Reason,
		At:      change.At,
	})
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteReservation(ctx, id)
}

func toPersistenceFilter(filter application.ReservationRepositoryFilter) persistence.ReservationFilter {
	out := persistence.ReservationFilter{
		Date:        cloneTime(filter.Date),
		GroupID:     cloneString(filter.GroupID),
		RequesterID: cloneString(filter.RequesterID),
		LiveOnly:    filter.LiveOnly,
	}
	if filter.Status != nil {
		status := persistence.Status(*filter.Status)
		out.Status = &status
	}
	if filter.ResourceID != nil {
		id := *filter.ResourceID
		out.ResourceID = &id
	}
	return out
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:                model.ID,
		Name:              model.Name,
		Hardware:          model.Hardware,
		Software:          model.Software,
		Enabled:           model.Enabled,
		AllowedCategories: append([]string(nil), model.AllowedCategories...),
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func toPersistenceResource(resource application.Resource) persistence.Resource {
	return persistence.Resource{
		ID:                resource.ID,
		Name:              resource.Name,
		Hardware:          resource.Hardware,
		Software:          resource.Software,
		Enabled:           resource.Enabled,
		AllowedCategories: append([]string(nil), resource.AllowedCategories...),
		CreatedAt:         resource.CreatedAt,
		UpdatedAt:         resource.UpdatedAt,
	}
}

func toApplicationReservation(model persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:                model.ID,
		RequesterID:       model.RequesterID,
		RequesterName:     model.RequesterName,
		RequesterEmail:    model.RequesterEmail,
		RequesterCategory: model.RequesterCategory,
		Software:          model.Software,
		Purpose:           model.Purpose,
		Date:              model.Date,
		ResourceID:        model.ResourceID,
		Blocks:            append([]timeblock.Block(nil), model.Blocks...),
		GroupID:           cloneString(model.GroupID),
		Status:            application.Status(model.Status),
		DecidedBy:         cloneString(model.DecidedBy),
		DecidedAt:         cloneTime(model.DecidedAt),
		RejectReason:      cloneString(model.RejectReason),
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:                reservation.ID,
		RequesterID:       reservation.RequesterID,
		RequesterName:     reservation.RequesterName,
		RequesterEmail:    reservation.RequesterEmail,
		RequesterCategory: reservation.RequesterCategory,
		Software:          reservation.Software,
		Purpose:           reservation.Purpose,
		Date:              reservation.Date,
		ResourceID:        reservation.ResourceID,
		Blocks:            append([]timeblock.Block(nil), reservation.Blocks...),
		GroupID:           cloneString(reservation.GroupID),
		Status:            persistence.Status(reservation.Status),
		DecidedBy:         cloneString(reservation.DecidedBy),
		DecidedAt:         cloneTime(reservation.DecidedAt),
		RejectReason:      cloneString(reservation.RejectReason),
		CreatedAt:         reservation.CreatedAt,
		UpdatedAt:         reservation.UpdatedAt,
	}
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
