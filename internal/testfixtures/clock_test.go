package testfixtures

import (
	"testing"
	"time"
)

func TestClockZeroStartPinsReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected the reference instant, got %v", clock.Now())
	}
}

func TestClockSteering(t *testing.T) {
	start := time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	// Advance by one block length.
	moved := clock.Advance(105 * time.Minute)
	if !moved.Equal(start.Add(105 * time.Minute)) {
		t.Fatalf("advance returned %v", moved)
	}

	target := start.AddDate(0, 0, 1)
	clock.Set(target)
	if got := clock.Current(); !got.Equal(target) {
		t.Fatalf("expected %v, got %v", target, got)
	}
}

func TestClockNowFuncTracksSteering(t *testing.T) {
	clock := NewClock(time.Date(2026, time.March, 2, 7, 0, 0, 0, time.UTC))
	now := clock.NowFunc()

	if got := now(); !got.Equal(clock.Current()) {
		t.Fatalf("expected %v from the injected func, got %v", clock.Current(), got)
	}

	clock.Advance(time.Hour)
	if got := now(); !got.Equal(clock.Current()) {
		t.Fatalf("expected the advanced instant %v, got %v", clock.Current(), got)
	}
}
