package build

import (
	"sync"
	"time"
)

// Progress is a point-in-time view of a running build. Seq increases with
// every update so pollers can detect staleness.
type Progress struct {
	Stage     Stage
	Detail    string
	UpdatedAt time.Time
	Seq       uint64
}

// Tracker publishes build progress to concurrent readers. The executor
// writes, the status surfaces read.
type Tracker struct {
	mu      sync.RWMutex
	current Progress
}

// NewTracker starts in the idle stage.
func NewTracker() *Tracker {
	return &Tracker{current: Progress{Stage: StageIdle, UpdatedAt: time.Now()}}
}

// Set records a stage transition or a detail update within a stage.
func (t *Tracker) Set(stage Stage, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = Progress{
		Stage:     stage,
		Detail:    detail,
		UpdatedAt: time.Now(),
		Seq:       t.current.Seq + 1,
	}
}

// Snapshot returns the latest progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}
