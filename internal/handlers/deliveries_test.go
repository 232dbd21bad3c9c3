package handlers

import (
	"testing"
	"time"
)

func TestStartOfDayUsesLocalMidnight(t *testing.T) {
	sast := time.FixedZone("SAST", 2*60*60)

	// 01:30 local is still "today" locally but already yesterday 23:30 in UTC
	now := time.Date(2026, time.September, 1, 1, 30, 0, 0, sast)

	got := startOfDay(now)
	want := time.Date(2026, time.September, 1, 0, 0, 0, 0, sast).Unix()
	if got != want {
		t.Fatalf("expected local midnight %d, got %d", want, got)
	}

	utcMidnight := now.Truncate(24 * time.Hour).Unix()
	if got == utcMidnight {
		t.Fatal("start of day must not collapse to UTC midnight")
	}
}

func TestStartOfDayBoundsTheDay(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	now := time.Date(2026, time.September, 1, 18, 45, 12, 0, loc)

	midnight := startOfDay(now)
	if midnight > now.Unix() {
		t.Fatalf("midnight %d is after now %d", midnight, now.Unix())
	}
	if now.Unix()-midnight >= 24*60*60 {
		t.Fatalf("midnight %d is more than a day before now %d", midnight, now.Unix())
	}
}
