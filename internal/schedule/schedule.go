// Package schedule parses the five-field cron expressions that drive
// scheduled builds and computes their next fire time.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule wraps a parsed cron expression.
type Schedule struct {
	expr  string
	inner cron.Schedule
}

// Parse validates a five-field cron expression (minute hour day month weekday).
func Parse(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	inner, err := parser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return Schedule{expr: expr, inner: inner}, nil
}

// Next returns the first fire time strictly after the given instant.
func (s Schedule) Next(after time.Time) time.Time {
	return s.inner.Next(after)
}

// String returns the original expression.
func (s Schedule) String() string {
	return s.expr
}
