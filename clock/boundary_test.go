package clockkit

import (
	"testing"
	"time"
)

func TestNextAfterBeforeBoundary(t *testing.T) {
	b := MustBoundary(7, 0, IST)

	ref := time.Date(2026, 8, 31, 6, 59, 59, 0, IST)
	want := time.Date(2026, 8, 31, 7, 0, 0, 0, IST)
	if got := b.NextAfter(ref); !got.Equal(want) {
		t.Fatalf("NextAfter(%v) = %v, want %v", ref, got, want)
	}
}

func TestNextAfterAtBoundaryRollsOver(t *testing.T) {
	b := MustBoundary(7, 0, IST)

	ref := time.Date(2026, 8, 31, 7, 0, 0, 0, IST)
	want := time.Date(2026, 9, 1, 7, 0, 0, 0, IST)
	if got := b.NextAfter(ref); !got.Equal(want) {
		t.Fatalf("NextAfter(at boundary) = %v, want %v", got, want)
	}
}

func TestNextAfterPastBoundaryRollsOver(t *testing.T) {
	b := MustBoundary(7, 0, IST)

	ref := time.Date(2026, 8, 31, 22, 15, 0, 0, IST)
	want := time.Date(2026, 9, 1, 7, 0, 0, 0, IST)
	if got := b.NextAfter(ref); !got.Equal(want) {
		t.Fatalf("NextAfter(past boundary) = %v, want %v", got, want)
	}
}

func TestNextAfterIndependentOfCallerZone(t *testing.T) {
	b := MustBoundary(7, 0, IST)

	// 01:29:59 UTC is 06:59:59 IST; 01:30:00 UTC is exactly 07:00 IST.
	before := time.Date(2026, 8, 31, 1, 29, 59, 0, time.UTC)
	at := time.Date(2026, 8, 31, 1, 30, 0, 0, time.UTC)

	today := time.Date(2026, 8, 31, 7, 0, 0, 0, IST)
	tomorrow := time.Date(2026, 9, 1, 7, 0, 0, 0, IST)

	if got := b.NextAfter(before); !got.Equal(today) {
		t.Errorf("UTC ref before boundary: got %v, want %v", got, today)
	}
	if got := b.NextAfter(at); !got.Equal(tomorrow) {
		t.Errorf("UTC ref at boundary: got %v, want %v", got, tomorrow)
	}
}

func TestNextAfterMonthRollover(t *testing.T) {
	b := MustBoundary(7, 0, IST)

	ref := time.Date(2026, 8, 31, 23, 0, 0, 0, IST)
	got := b.NextAfter(ref)
	if got.In(IST).Day() != 1 || got.In(IST).Month() != time.September {
		t.Fatalf("month rollover: got %v", got)
	}
}

func TestNewBoundaryValidation(t *testing.T) {
	if _, err := NewBoundary(24, 0, IST); err == nil {
		t.Error("hour 24 accepted")
	}
	if _, err := NewBoundary(7, 60, IST); err == nil {
		t.Error("minute 60 accepted")
	}
	if _, err := NewBoundary(7, 0, nil); err == nil {
		t.Error("nil location accepted")
	}
}

func TestUnixMsRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 31, 7, 0, 0, 0, IST)
	if got := FromUnixMs(UnixMs(at)); !got.Equal(at) {
		t.Fatalf("round trip: got %v, want %v", got, at)
	}
}
