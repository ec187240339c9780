package build

import (
	"time"

	"github.com/google/uuid"
)

// Record summarizes one finished (or failed) build.
type Record struct {
	ID          string
	Trigger     Trigger
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     Outcome
	FailedStage Stage
	Error       string

	Output      string
	SlideCount  int
	Repeats     int
	Track       string
	Attribution string
	Duration    float64
}

// newRecord opens a record for a starting build.
func newRecord(trigger Trigger) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
}

// Elapsed is the wall-clock build time.
func (r *Record) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
