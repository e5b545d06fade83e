package scheduler

import (
	"testing"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

var testDate = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

func TestComputeAvailabilityRoundTrip(t *testing.T) {
	t.Parallel()

	resources := []int{1, 2, 3, 4}
	live := []Reservation{
		{ID: "res-1", ResourceID: 3, Date: testDate, Blocks: []timeblock.Block{timeblock.Block2, timeblock.Block3}},
	}

	availability := ComputeAvailability(resources, live, testDate)
	if len(availability) != timeblock.BlockCount {
		t.Fatalf("expected %d block entries, got %d", timeblock.BlockCount, len(availability))
	}

	for _, entry := range availability {
		switch entry.Block {
		case timeblock.Block2, timeblock.Block3:
			if len(entry.Occupied) != 1 || entry.Occupied[0] != 3 {
				t.Errorf("%s: occupied = %v, want [3]", entry.Block, entry.Occupied)
			}
			if len(entry.Available) != 3 {
				t.Errorf("%s: available = %v, want three resources", entry.Block, entry.Available)
			}
		default:
			if len(entry.Occupied) != 0 {
				t.Errorf("%s: occupied = %v, want none", entry.Block, entry.Occupied)
			}
			if len(entry.Available) != 4 {
				t.Errorf("%s: available = %v, want all four", entry.Block, entry.Available)
			}
		}
	}
}

func TestComputeAvailabilityIgnoresOtherDates(t *testing.T) {
	t.Parallel()

	otherDay := testDate.AddDate(0, 0, 1)
	live := []Reservation{
		{ID: "res-1", ResourceID: 1, Date: otherDay, Blocks: []timeblock.Block{timeblock.Block1}},
	}

	availability := ComputeAvailability([]int{1}, live, testDate)
	for _, entry := range availability {
		if len(entry.Occupied) != 0 {
			t.Fatalf("%s: reservation on another date must not occupy", entry.Block)
		}
	}
}

func TestFindConflicts(t *testing.T) {
	t.Parallel()

	existing := []Reservation{
		{ID: "held", ResourceID: 2, Date: testDate, Blocks: []timeblock.Block{timeblock.Block4, timeblock.Block5}},
		{ID: "elsewhere", ResourceID: 5, Date: testDate, Blocks: []timeblock.Block{timeblock.Block4}},
	}

	candidate := Reservation{ID: "new", ResourceID: 2, Date: testDate, Blocks: []timeblock.Block{timeblock.Block3, timeblock.Block4}}
	conflicts := FindConflicts(existing, candidate)

	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %v", conflicts)
	}
	if conflicts[0].ReservationID != "held" || conflicts[0].Block != timeblock.Block4 {
		t.Fatalf("unexpected conflict %+v", conflicts[0])
	}
}

func TestFindConflictsSkipsSelf(t *testing.T) {
	t.Parallel()

	held := Reservation{ID: "self", ResourceID: 2, Date: testDate, Blocks: []timeblock.Block{timeblock.Block1}}
	if got := FindConflicts([]Reservation{held}, held); len(got) != 0 {
		t.Fatalf("a reservation must not conflict with itself: %v", got)
	}
}
