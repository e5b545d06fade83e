package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2025-06-02 is a Monday.
var (
	monday = date(2025, time.June, 2)
	today  = date(2025, time.June, 1)
)

func groupIDStub() string { return "group-1" }

func TestExpandWeeklyPattern(t *testing.T) {
	t.Parallel()

	expansion, err := Expand(Request{
		Pattern: &Pattern{
			StartDate: monday,
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			Weeks:     2,
		},
	}, today, groupIDStub)
	require.NoError(t, err)

	want := []time.Time{
		monday,                   // Mon Jun 2
		date(2025, time.June, 4), // Wed Jun 4
		date(2025, time.June, 9), // Mon Jun 9
		date(2025, time.June, 11),
	}
	require.Equal(t, want, expansion.Dates)
	assert.Equal(t, "group-1", expansion.GroupID, "multi-date expansion must share a group id")
}

func TestExpandPatternSkipsDaysBeforeStart(t *testing.T) {
	t.Parallel()

	// Start on Wednesday: the Monday of the first week precedes the start
	// date and must be skipped, leaving Monday only in the second week.
	wednesday := date(2025, time.June, 4)
	expansion, err := Expand(Request{
		Pattern: &Pattern{
			StartDate: wednesday,
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			Weeks:     2,
		},
	}, today, groupIDStub)
	require.NoError(t, err)

	want := []time.Time{
		wednesday,
		date(2025, time.June, 9),
		date(2025, time.June, 11),
	}
	assert.Equal(t, want, expansion.Dates)
}

func TestExpandPatternWeekendStartAnchorsNextWeek(t *testing.T) {
	t.Parallel()

	// A weekend start date is not itself reservable but still anchors the
	// pattern: expansion begins with the following Monday's week.
	saturday := date(2025, time.June, 7)
	expansion, err := Expand(Request{
		Pattern: &Pattern{
			StartDate: saturday,
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			Weeks:     2,
		},
	}, today, groupIDStub)
	require.NoError(t, err)

	want := []time.Time{
		date(2025, time.June, 9),
		date(2025, time.June, 11),
		date(2025, time.June, 16),
		date(2025, time.June, 18),
	}
	assert.Equal(t, want, expansion.Dates)
}

func TestExpandSingletonHasNoGroupID(t *testing.T) {
	t.Parallel()

	expansion, err := Expand(Request{Dates: []time.Time{monday}}, today, groupIDStub)
	require.NoError(t, err)
	require.Len(t, expansion.Dates, 1)
	assert.Empty(t, expansion.GroupID)
}

func TestExpandExplicitDeduplicatesAndSorts(t *testing.T) {
	t.Parallel()

	tuesday := date(2025, time.June, 3)
	expansion, err := Expand(Request{
		Dates: []time.Time{tuesday, monday, tuesday},
	}, today, groupIDStub)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{monday, tuesday}, expansion.Dates)
	assert.Equal(t, "group-1", expansion.GroupID)
}

func TestExpandRejectsWeekendAndPastDates(t *testing.T) {
	t.Parallel()

	saturday := date(2025, time.June, 7)
	var invalid *InvalidDateError

	_, err := Expand(Request{Dates: []time.Time{saturday}}, today, groupIDStub)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, saturday, invalid.Date)

	past := date(2025, time.May, 30)
	_, err = Expand(Request{Dates: []time.Time{past}}, today, groupIDStub)
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "past")
}

func TestExpandRejectsAmbiguousRequests(t *testing.T) {
	t.Parallel()

	_, err := Expand(Request{}, today, groupIDStub)
	assert.ErrorIs(t, err, ErrAmbiguousRequest)

	_, err = Expand(Request{
		Dates:   []time.Time{monday},
		Pattern: &Pattern{StartDate: monday, Weekdays: []time.Weekday{time.Monday}, Weeks: 1},
	}, today, groupIDStub)
	assert.ErrorIs(t, err, ErrAmbiguousRequest)
}

func TestExpandPatternValidation(t *testing.T) {
	t.Parallel()

	var invalid *InvalidDateError

	_, err := Expand(Request{Pattern: &Pattern{StartDate: monday, Weekdays: []time.Weekday{time.Monday}, Weeks: 5}}, today, groupIDStub)
	require.ErrorAs(t, err, &invalid)

	_, err = Expand(Request{Pattern: &Pattern{StartDate: monday, Weeks: 1}}, today, groupIDStub)
	require.ErrorAs(t, err, &invalid)

	_, err = Expand(Request{Pattern: &Pattern{StartDate: monday, Weekdays: []time.Weekday{time.Sunday}, Weeks: 1}}, today, groupIDStub)
	require.ErrorAs(t, err, &invalid)
}

func TestExpandEmptyExpansion(t *testing.T) {
	t.Parallel()

	// Start on Friday with only earlier weekdays selected and a single
	// week: every candidate precedes the start date.
	friday := date(2025, time.June, 6)
	_, err := Expand(Request{
		Pattern: &Pattern{
			StartDate: friday,
			Weekdays:  []time.Weekday{time.Monday, time.Tuesday},
			Weeks:     1,
		},
	}, today, groupIDStub)
	assert.True(t, errors.Is(err, ErrEmptyExpansion), "got %v", err)
}
