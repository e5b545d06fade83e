package timeblock

import (
	"testing"
	"time"
)

func TestWindowsCoverDayContiguously(t *testing.T) {
	t.Parallel()

	blocks := All()
	if len(blocks) != BlockCount {
		t.Fatalf("expected %d blocks, got %d", BlockCount, len(blocks))
	}

	prevEnd := DayStart
	for _, block := range blocks {
		start, end := Window(block)
		if start != prevEnd {
			t.Errorf("block %s starts at %v, expected %v", block, start, prevEnd)
		}
		if end-start != BlockDuration {
			t.Errorf("block %s spans %v, expected %v", block, end-start, BlockDuration)
		}
		prevEnd = end
	}

	if want := 17*time.Hour + 30*time.Minute; prevEnd != want {
		t.Fatalf("day ends at %v, expected %v", prevEnd, want)
	}
}

func TestWindowClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		block Block
		start string
		end   string
	}{
		{Block1, "07:00", "08:45"},
		{Block2, "08:45", "10:30"},
		{Block3, "10:30", "12:15"},
		{Block4, "12:15", "14:00"},
		{Block5, "14:00", "15:45"},
		{Block6, "15:45", "17:30"},
	}

	for _, tc := range cases {
		start, end := WindowClock(tc.block)
		if start != tc.start || end != tc.end {
			t.Errorf("%s: got %s-%s, want %s-%s", tc.block, start, end, tc.start, tc.end)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	for _, block := range All() {
		parsed, err := Parse(block.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", block.String(), err)
		}
		if parsed != block {
			t.Errorf("Parse(%q) = %v, want %v", block.String(), parsed, block)
		}
	}

	if _, err := Parse("BLOCK_7"); err == nil {
		t.Error("expected error for BLOCK_7")
	}
	if _, err := Parse("lunch"); err == nil {
		t.Error("expected error for non-numeric token")
	}
	if got, err := Parse("block_2"); err != nil || got != Block2 {
		t.Errorf("Parse(block_2) = %v, %v", got, err)
	}
}

func TestIsReservableWeekdayFullYear(t *testing.T) {
	t.Parallel()

	// Walk every day of 2025 plus the boundaries into 2026 to cover month
	// and year transitions.
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	for !day.After(end) {
		want := day.Weekday() != time.Saturday && day.Weekday() != time.Sunday
		if got := IsReservableWeekday(day); got != want {
			t.Errorf("%s (%s): got %v, want %v", day.Format("2006-01-02"), day.Weekday(), got, want)
		}
		day = day.AddDate(0, 0, 1)
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("JST", 9*60*60)
	stamp := time.Date(2025, time.June, 3, 23, 45, 12, 99, loc)
	normalized := NormalizeDate(stamp)

	if normalized.Hour() != 0 || normalized.Minute() != 0 || normalized.Location() != time.UTC {
		t.Fatalf("unexpected normalization: %v", normalized)
	}
	if normalized.Day() != 3 {
		t.Fatalf("normalization must keep the civil date, got %v", normalized)
	}
	if !SameDate(stamp, time.Date(2025, time.June, 3, 1, 0, 0, 0, loc)) {
		t.Error("SameDate should match timestamps on the same civil date")
	}
}
