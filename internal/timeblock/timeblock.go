// Package timeblock defines the fixed daily reservation grid: six contiguous
// 105-minute blocks covering 07:00-17:30 on weekdays. The grid is global and
// immutable; blocks are referenced by value, never persisted as records.
package timeblock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Block identifies one of the six fixed time blocks of a reservable day.
type Block int

const (
	// Block1 covers 07:00-08:45.
	Block1 Block = iota + 1
	// Block2 covers 08:45-10:30.
	Block2
	// Block3 covers 10:30-12:15.
	Block3
	// Block4 covers 12:15-14:00.
	Block4
	// Block5 covers 14:00-15:45.
	Block5
	// Block6 covers 15:45-17:30.
	Block6
)

const (
	// BlockCount is the number of blocks in a reservable day.
	BlockCount = 6

	// BlockDuration is the fixed length of every block.
	BlockDuration = 105 * time.Minute

	// DayStart is the offset from midnight at which Block1 begins.
	DayStart = 7 * time.Hour

	// MaxBlocksPerReservation is the domain ceiling on blocks a single
	// instance may span.
	MaxBlocksPerReservation = 3

	// DefaultMaxBlocksPerRequest caps blocks on newly created requests.
	// The domain models up to three blocks but creation flows accept two;
	// the cap is configuration, not a hard-coded rule.
	DefaultMaxBlocksPerRequest = 2
)

// All returns the fixed, ordered list of blocks.
func All() []Block {
	return []Block{Block1, Block2, Block3, Block4, Block5, Block6}
}

// Valid reports whether b names one of the six blocks.
func (b Block) Valid() bool {
	return b >= Block1 && b <= Block6
}

// String renders the block as its wire token, e.g. "BLOCK_3".
func (b Block) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BLOCK_INVALID(%d)", int(b))
	}
	return fmt.Sprintf("BLOCK_%d", int(b))
}

// Parse converts a wire token ("BLOCK_3", "block_3" or "3") into a Block.
func Parse(value string) (Block, error) {
	trimmed := strings.TrimSpace(strings.ToUpper(value))
	trimmed = strings.TrimPrefix(trimmed, "BLOCK_")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("timeblock: unknown block %q", value)
	}
	block := Block(n)
	if !block.Valid() {
		return 0, fmt.Errorf("timeblock: unknown block %q", value)
	}
	return block, nil
}

// Window returns the block's start and end offsets from midnight.
func Window(b Block) (start, end time.Duration) {
	start = DayStart + time.Duration(int(b)-1)*BlockDuration
	return start, start + BlockDuration
}

// WindowClock renders the block window as wall-clock strings ("07:00", "08:45").
func WindowClock(b Block) (start, end string) {
	s, e := Window(b)
	return clockString(s), clockString(e)
}

func clockString(offset time.Duration) string {
	total := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// IsReservableWeekday reports whether the date falls on a permitted weekday
// (Monday through Friday). Pure calendar arithmetic, valid for any date.
func IsReservableWeekday(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// NormalizeDate truncates a timestamp to its calendar date at midnight UTC.
// All persisted reservation dates are normalized through this helper so that
// equality checks and range queries compare civil dates, not instants.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same civil date.
func SameDate(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}
