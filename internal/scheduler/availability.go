// Package scheduler holds the pure availability computation: given the live
// reservations of a date, partition resources into available and occupied
// sets per time block, and name the exact slots a candidate would collide
// with. The package has no state; callers feed it persisted reservations.
package scheduler

import (
	"sort"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// Reservation is the slice of a reservation instance the engine needs: who
// holds which resource on which date for which blocks. Only instances whose
// status is live (pending or approved) should be passed in.
type Reservation struct {
	ID         string
	ResourceID int
	Date       time.Time
	Blocks     []timeblock.Block
}

// BlockAvailability partitions resources for one time block.
type BlockAvailability struct {
	Block     timeblock.Block
	Available []int
	Occupied  []int
}

// Conflict names one occupied slot a candidate collides with.
type Conflict struct {
	ReservationID string
	ResourceID    int
	Date          time.Time
	Block         timeblock.Block
}

// ComputeAvailability partitions the given resources across all blocks of a
// date. A reservation occupies each of its blocks independently; resources
// not claimed by any live instance for a block are available. The resource
// lists are ordered ascending by identity, blocks in grid order.
func ComputeAvailability(resourceIDs []int, live []Reservation, date time.Time) []BlockAvailability {
	date = timeblock.NormalizeDate(date)

	occupied := make(map[timeblock.Block]map[int]struct{}, timeblock.BlockCount)
	for _, block := range timeblock.All() {
		occupied[block] = make(map[int]struct{})
	}

	for _, res := range live {
		if !timeblock.SameDate(res.Date, date) {
			continue
		}
		for _, block := range res.Blocks {
			if set, ok := occupied[block]; ok {
				set[res.ResourceID] = struct{}{}
			}
		}
	}

	ordered := make([]int, len(resourceIDs))
	copy(ordered, resourceIDs)
	sort.Ints(ordered)

	result := make([]BlockAvailability, 0, timeblock.BlockCount)
	for _, block := range timeblock.All() {
		entry := BlockAvailability{Block: block, Available: []int{}, Occupied: []int{}}
		for _, id := range ordered {
			if _, taken := occupied[block][id]; taken {
				entry.Occupied = append(entry.Occupied, id)
			} else {
				entry.Available = append(entry.Available, id)
			}
		}
		result = append(result, entry)
	}
	return result
}

// FindConflicts returns every (resource, date, block) slot of the candidate
// that is already claimed by a live instance. An empty result means the
// candidate can be persisted without violating the single-holder invariant.
// The candidate itself is skipped when present in existing, so the check can
// be reused for approval-time revalidation.
func FindConflicts(existing []Reservation, candidate Reservation) []Conflict {
	wanted := make(map[timeblock.Block]struct{}, len(candidate.Blocks))
	for _, block := range candidate.Blocks {
		wanted[block] = struct{}{}
	}

	var conflicts []Conflict
	for _, res := range existing {
		if res.ID == candidate.ID {
			continue
		}
		if res.ResourceID != candidate.ResourceID || !timeblock.SameDate(res.Date, candidate.Date) {
			continue
		}
		for _, block := range res.Blocks {
			if _, ok := wanted[block]; !ok {
				continue
			}
			conflicts = append(conflicts, Conflict{
				ReservationID: res.ID,
				ResourceID:    res.ResourceID,
				Date:          timeblock.NormalizeDate(res.Date),
				Block:         block,
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Block < conflicts[j].Block })
	return conflicts
}
