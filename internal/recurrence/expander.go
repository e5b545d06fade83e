// Package recurrence expands a reservation request into the concrete list of
// dates it claims. A request supplies either an explicit date list or a
// weekly pattern; the expander validates, de-duplicates and orders the dates
// and tags multi-date results with a shared group identifier.
package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// MaxWeeks bounds the week count of a weekly pattern.
const MaxWeeks = 4

var (
	// ErrAmbiguousRequest indicates a request supplied both or neither of
	// the explicit date list and the weekly pattern.
	ErrAmbiguousRequest = errors.New("recurrence: exactly one of dates or pattern must be supplied")

	// ErrEmptyExpansion indicates the request expanded to zero dates.
	ErrEmptyExpansion = errors.New("recurrence: request expands to no dates")
)

// InvalidDateError reports a candidate date that cannot be reserved.
type InvalidDateError struct {
	Date   time.Time
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("recurrence: invalid date %s: %s", e.Date.Format("2006-01-02"), e.Reason)
}

// Pattern describes a weekly recurrence: the selected weekdays of up to
// MaxWeeks consecutive weeks, beginning with the week containing StartDate.
// A weekend StartDate anchors the following Monday's week instead.
type Pattern struct {
	StartDate time.Time
	Weekdays  []time.Weekday
	Weeks     int
}

// Request is the transient expansion input. Exactly one of Dates (mode A)
// or Pattern (mode B) must be set; the pattern is never persisted.
type Request struct {
	Dates   []time.Time
	Pattern *Pattern
}

// Expansion is the ordered, de-duplicated result of expanding a request.
// GroupID is non-empty only when more than one date resulted, so that the
// approval workflow can address the instances as one logical request while
// each remains independently transitionable.
type Expansion struct {
	Dates   []time.Time
	GroupID string
}

// Expand converts a request into concrete reservation dates. The today
// argument anchors the no-writes-in-the-past rule; newGroupID mints the
// shared group tag and is only invoked for multi-date results.
func Expand(req Request, today time.Time, newGroupID func() string) (Expansion, error) {
	hasDates := len(req.Dates) > 0
	hasPattern := req.Pattern != nil
	if hasDates == hasPattern {
		return Expansion{}, ErrAmbiguousRequest
	}

	today = timeblock.NormalizeDate(today)

	var dates []time.Time
	var err error
	if hasDates {
		dates, err = expandExplicit(req.Dates, today)
	} else {
		dates, err = expandPattern(*req.Pattern, today)
	}
	if err != nil {
		return Expansion{}, err
	}
	if len(dates) == 0 {
		return Expansion{}, ErrEmptyExpansion
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	expansion := Expansion{Dates: dates}
	if len(dates) > 1 && newGroupID != nil {
		expansion.GroupID = newGroupID()
	}
	return expansion, nil
}

func expandExplicit(candidates []time.Time, today time.Time) ([]time.Time, error) {
	seen := make(map[time.Time]struct{}, len(candidates))
	dates := make([]time.Time, 0, len(candidates))

	for _, candidate := range candidates {
		date := timeblock.NormalizeDate(candidate)
		if err := checkReservableDate(date, today); err != nil {
			return nil, err
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	return dates, nil
}

func expandPattern(pattern Pattern, today time.Time) ([]time.Time, error) {
	if pattern.Weeks < 1 || pattern.Weeks > MaxWeeks {
		return nil, &InvalidDateError{Date: pattern.StartDate, Reason: fmt.Sprintf("week count must be between 1 and %d", MaxWeeks)}
	}
	if len(pattern.Weekdays) == 0 {
		return nil, &InvalidDateError{Date: pattern.StartDate, Reason: "at least one weekday is required"}
	}

	// The start date only anchors the first week; it need not be reservable
	// itself. A weekend anchor rolls forward to the next Monday.
	start := timeblock.NormalizeDate(pattern.StartDate)
	for !timeblock.IsReservableWeekday(start) {
		start = start.AddDate(0, 0, 1)
	}
	if start.Before(today) {
		return nil, &InvalidDateError{Date: start, Reason: "date is in the past"}
	}

	selected := make(map[time.Weekday]struct{}, len(pattern.Weekdays))
	for _, day := range pattern.Weekdays {
		if day == time.Saturday || day == time.Sunday {
			return nil, &InvalidDateError{Date: start, Reason: fmt.Sprintf("%s is not a reservable weekday", day)}
		}
		selected[day] = struct{}{}
	}

	weekStart := startOfWeek(start)
	dates := make([]time.Time, 0, len(selected)*pattern.Weeks)
	for week := 0; week < pattern.Weeks; week++ {
		for offset := 0; offset < 7; offset++ {
			date := weekStart.AddDate(0, 0, week*7+offset)
			if _, ok := selected[date.Weekday()]; !ok {
				continue
			}
			if date.Before(start) {
				continue
			}
			dates = append(dates, date)
		}
	}
	return dates, nil
}

func checkReservableDate(date, today time.Time) error {
	if !timeblock.IsReservableWeekday(date) {
		return &InvalidDateError{Date: date, Reason: fmt.Sprintf("%s is not a reservable weekday", date.Weekday())}
	}
	if date.Before(today) {
		return &InvalidDateError{Date: date, Reason: "date is in the past"}
	}
	return nil
}

// startOfWeek returns the Monday beginning the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
