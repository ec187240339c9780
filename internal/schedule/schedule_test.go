package schedule_test

import (
	"testing"
	"time"

	"slidesmith/internal/schedule"
)

func TestParseRejectsMalformedExpressions(t *testing.T) {
	for _, expr := range []string{"", "every friday", "0 1 * *", "61 1 * * 5"} {
		if _, err := schedule.Parse(expr); err == nil {
			t.Fatalf("expected %q to be rejected", expr)
		}
	}
}

func TestNextFridayOneAM(t *testing.T) {
	sched, err := schedule.Parse("0 1 * * 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Wednesday 2026-01-07 12:00 UTC; next Friday is 2026-01-09.
	after := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)
	next := sched.Next(after)
	want := time.Date(2026, 1, 9, 1, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("Next(%v) = %v, want %v", after, next, want)
	}
}

func TestNextIsStrictlyAfter(t *testing.T) {
	sched, err := schedule.Parse("*/5 * * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	at := time.Date(2026, 1, 7, 12, 5, 0, 0, time.UTC)
	next := sched.Next(at)
	if !next.After(at) {
		t.Fatalf("expected next fire strictly after %v, got %v", at, next)
	}
}
