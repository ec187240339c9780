// Package media defines the build inventory model: source files, their
// kinds, and the deterministic ordering key consumed by the planner.
package media
