package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/timeblock"
)

var (
	resourceCounter    uint64
	reservationCounter uint64
)

// referenceTime is a Monday so derived dates land on reservable weekdays.
var referenceTime = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the midnight date of ReferenceTime shifted by the
// given number of days.
func ReferenceDate(daysAhead int) time.Time {
	return timeblock.NormalizeDate(referenceTime).AddDate(0, 0, daysAhead)
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a deterministic lab computer record that can be
// materialised for application or persistence tests.
type ResourceFixture struct {
	ID                int
	Name              string
	Hardware          string
	Software          string
	Enabled           bool
	AllowedCategories []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional
// overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResourceFixture{
		ID:        int(idx),
		Name:      fmt.Sprintf("lab-pc-%03d", idx),
		Hardware:  "16GB RAM, RTX A2000",
		Software:  "MATLAB R2025b, SolidWorks",
		Enabled:   true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id int) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceName overrides the generated name.
func WithResourceName(name string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Name = name
	}
}

// WithResourceEnabled sets the enabled flag on the generated fixture.
func WithResourceEnabled(enabled bool) ResourceOption {
	return func(f *ResourceFixture) {
		f.Enabled = enabled
	}
}

// WithResourceCategories restricts the fixture to the given requester
// categories.
func WithResourceCategories(categories ...string) ResourceOption {
	return func(f *ResourceFixture) {
		f.AllowedCategories = append([]string(nil), categories...)
	}
}

// Application returns the fixture as an application.Resource value.
func (f ResourceFixture) Application() application.Resource {
	return application.Resource{
		ID:                f.ID,
		Name:              f.Name,
		Hardware:          f.Hardware,
		Software:          f.Software,
		Enabled:           f.Enabled,
		AllowedCategories: append([]string(nil), f.AllowedCategories...),
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Resource value.
func (f ResourceFixture) Persistence() persistence.Resource {
	return persistence.Resource{
		ID:                f.ID,
		Name:              f.Name,
		Hardware:          f.Hardware,
		Software:          f.Software,
		Enabled:           f.Enabled,
		AllowedCategories: append([]string(nil), f.AllowedCategories...),
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation instance that can
// be materialised for application or persistence tests.
type ReservationFixture struct {
	ID                string
	RequesterID       string
	RequesterName     string
	RequesterEmail    string
	RequesterCategory string
	Software          string
	Purpose           string
	Date              time.Time
	ResourceID        int
	Blocks            []timeblock.Block
	GroupID           *string
	Status            persistence.Status
	DecidedBy         *string
	DecidedAt         *time.Time
	RejectReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic pending reservation fixture
// with optional overrides. Each fixture lands on a distinct weekday slot so
// unrelated fixtures never collide.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	requester := fmt.Sprintf("s%04d", 1000+idx)
	fixture := ReservationFixture{
		ID:                fmt.Sprintf("reservation-%03d", idx),
		RequesterID:       requester,
		RequesterName:     fmt.Sprintf("Requester %03d", idx),
		RequesterEmail:    fmt.Sprintf("%s@example.edu", requester),
		RequesterCategory: "student",
		Purpose:           "coursework",
		Date:              nextWeekday(referenceTime, int(idx)),
		ResourceID:        1,
		Blocks:            []timeblock.Block{timeblock.Block(int(idx-1)%timeblock.BlockCount + 1)},
		Status:            persistence.StatusPending,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithRequester overrides the requester snapshot fields.
func WithRequester(id, name, email, category string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RequesterID = id
		f.RequesterName = name
		f.RequesterEmail = email
		f.RequesterCategory = category
	}
}

// WithReservationDate sets the reservation date.
func WithReservationDate(date time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Date = timeblock.NormalizeDate(date)
	}
}

// WithReservationResource sets the reserved resource.
func WithReservationResource(id int) ReservationOption {
	return func(f *ReservationFixture) {
		f.ResourceID = id
	}
}

// WithReservationBlocks sets the reserved blocks.
func WithReservationBlocks(blocks ...timeblock.Block) ReservationOption {
	return func(f *ReservationFixture) {
		f.Blocks = append([]timeblock.Block(nil), blocks...)
	}
}

// WithReservationGroup assigns the fixture to a recurrence group.
func WithReservationGroup(groupID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.GroupID = &groupID
	}
}

// WithReservationStatus sets the workflow status.
func WithReservationStatus(status persistence.Status) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// WithDecision records the deciding actor and instant on the fixture.
func WithDecision(actorID string, at time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.DecidedBy = &actorID
		f.DecidedAt = &at
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:                f.ID,
		RequesterID:       f.RequesterID,
		RequesterName:     f.RequesterName,
		RequesterEmail:    f.RequesterEmail,
		RequesterCategory: f.RequesterCategory,
		Software:          f.Software,
		Purpose:           f.Purpose,
		Date:              f.Date,
		ResourceID:        f.ResourceID,
		Blocks:            append([]timeblock.Block(nil), f.Blocks...),
		GroupID:           f.GroupID,
		Status:            application.Status(f.Status),
		DecidedBy:         f.DecidedBy,
		DecidedAt:         f.DecidedAt,
		RejectReason:      f.RejectReason,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:                f.ID,
		RequesterID:       f.RequesterID,
		RequesterName:     f.RequesterName,
		RequesterEmail:    f.RequesterEmail,
		RequesterCategory: f.RequesterCategory,
		Software:          f.Software,
		Purpose:           f.Purpose,
		Date:              f.Date,
		ResourceID:        f.ResourceID,
		Blocks:            append([]timeblock.Block(nil), f.Blocks...),
		GroupID:           f.GroupID,
		Status:            f.Status,
		DecidedBy:         f.DecidedBy,
		DecidedAt:         f.DecidedAt,
		RejectReason:      f.RejectReason,
		CreatedAt:         f.CreatedAt,
		UpdatedAt:         f.UpdatedAt,
	}
}

// nextWeekday returns the date offset weekdays after the base, skipping
// Saturdays and Sundays.
func nextWeekday(base time.Time, offset int) time.Time {
	date := timeblock.NormalizeDate(base)
	for offset > 0 {
		date = date.AddDate(0, 0, 1)
		if timeblock.IsReservableWeekday(date) {
			offset--
		}
	}
	return date
}
