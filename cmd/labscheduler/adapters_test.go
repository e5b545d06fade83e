package main

import (
	"context"
	"testing"
	"time"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/persistence/memory"
	"github.com/example/lab-scheduler/internal/testfixtures"
	"github.com/example/lab-scheduler/internal/timeblock"
)

// TestAdaptersEndToEnd wires the adapters over the in-memory store and walks a
// reservation from submission to approval through the application services.
func TestAdaptersEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	factory := testfixtures.NewServiceFactory(
		testfixtures.WithClock(testfixtures.NewClock(testfixtures.ReferenceTime())),
		testfixtures.WithIDGenerator(testfixtures.NewIDGenerator("reservation")),
	)

	resourceAdapter := newResourceRepositoryAdapter(store)
	reservationAdapter := newReservationRepositoryAdapter(store)

	resourceService := factory.NewResourceService(testfixtures.ResourceServiceDeps{Resources: resourceAdapter})
	reservationService := factory.NewReservationService(testfixtures.ReservationServiceDeps{
		Reservations: reservationAdapter,
		Resources:    resourceAdapter,
	})

	admin := application.Principal{UserID: "admin1", IsAdmin: true}

	resource, err := resourceService.CreateResource(ctx, application.CreateResourceParams{
		Principal: admin,
		Input:     application.ResourceInput{Name: "lab-pc-01"},
	})
	if err != nil {
		t.Fatalf("CreateResource returned error: %v", err)
	}

	date := testfixtures.ReferenceDate(2)
	created, err := reservationService.CreateReservation(ctx, application.CreateReservationParams{
		Principal: application.Principal{UserID: "s1024"},
		Input: application.ReservationInput{
			Requester: application.RequesterInput{
				ID:       "s1024",
				Name:     "Mika Tanaka",
				Email:    "mika@example.edu",
				Category: "student",
			},
			ResourceID: resource.ID,
			Blocks:     []timeblock.Block{timeblock.Block2},
			Purpose:    "coursework",
			Dates:      []time.Time{date},
		},
	})
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if len(created.Reservations) != 1 {
		t.Fatalf("expected a single instance, got %d", len(created.Reservations))
	}
	instance := created.Reservations[0]
	if instance.Status != application.StatusPending {
		t.Fatalf("expected pending status, got %q", instance.Status)
	}

	approved, err := reservationService.Approve(ctx, application.DecisionParams{
		Principal:     admin,
		ReservationID: instance.ID,
	})
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if approved.Status != application.StatusApproved {
		t.Fatalf("expected approved status, got %q", approved.Status)
	}
	if approved.DecidedBy == nil || *approved.DecidedBy != "admin1" {
		t.Fatalf("expected deciding actor admin1, got %v", approved.DecidedBy)
	}

	// The held slot must be reported as unavailable afterwards.
	day, err := reservationService.Availability(ctx, application.AvailabilityParams{Date: date})
	if err != nil {
		t.Fatalf("Availability returned error: %v", err)
	}
	if len(day.Resources) != 1 {
		t.Fatalf("expected one resource in the grid, got %d", len(day.Resources))
	}
	for _, block := range day.Resources[0].Blocks {
		if block.Block == timeblock.Block2 && block.Available {
			t.Fatalf("expected %s to be occupied", block.Block)
		}
	}
}

func TestFilterConversionCopiesPointers(t *testing.T) {
	status := application.StatusPending
	resourceID := 7
	group := "grp-1"
	date := testfixtures.ReferenceDate(1)

	filter := toPersistenceFilter(application.ReservationRepositoryFilter{
		Date:       &date,
		Status:     &status,
		GroupID:    &group,
		ResourceID: &resourceID,
		LiveOnly:   true,
	})

	if filter.Status == nil || string(*filter.Status) != string(status) {
		t.Fatalf("unexpected status: %v", filter.Status)
	}
	if filter.ResourceID == nil || *filter.ResourceID != resourceID {
		t.Fatalf("unexpected resource ID: %v", filter.ResourceID)
	}
	if filter.GroupID == &group {
		t.Fatal("expected group pointer to be cloned")
	}
	if !filter.LiveOnly {
		t.Fatal("expected LiveOnly to carry over")
	}
}

func TestReservationConversionRoundTrip(t *testing.T) {
	fixture := testfixtures.NewReservationFixture(
		testfixtures.WithReservationGroup("grp-9"),
		testfixtures.WithReservationBlocks(timeblock.Block1, timeblock.Block2),
	)

	model := toPersistenceReservation(fixture.Application())
	back := toApplicationReservation(model)

	if back.ID != fixture.ID {
		t.Fatalf("unexpected ID: %q", back.ID)
	}
	if back.GroupID == nil || *back.GroupID != "grp-9" {
		t.Fatalf("unexpected group: %v", back.GroupID)
	}
	if len(back.Blocks) != 2 || back.Blocks[0] != timeblock.Block1 {
		t.Fatalf("unexpected blocks: %v", back.Blocks)
	}
	if back.Status != application.StatusPending {
		t.Fatalf("unexpected status: %q", back.Status)
	}
}
