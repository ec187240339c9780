package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a rejected configuration key or value. The
	// override store is left unchanged when this is returned.
	ErrValidation = errors.New("validation error")
	// ErrEmptyInventory marks a build whose image source produced no slides.
	ErrEmptyInventory = errors.New("empty inventory")
	// ErrDurationTooShort marks a target duration that cannot hold a
	// single slide at the configured floor.
	ErrDurationTooShort = errors.New("duration too short")
	// ErrNotFound marks a missing resource caught by pre-flight checks.
	ErrNotFound = errors.New("not found")
	// ErrTransport marks storage or notification I/O failures.
	ErrTransport = errors.New("transport error")
	// ErrAlreadyRunning is the normal rejection of a redundant build
	// trigger, not a failure.
	ErrAlreadyRunning = errors.New("build already running")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPlanFailure reports whether the error prevented a valid assembly plan
// from being produced. Plan failures abort a build before any I/O.
func IsPlanFailure(err error) bool {
	return errors.Is(err, ErrEmptyInventory) || errors.Is(err, ErrDurationTooShort)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
