// Package services defines the shared error taxonomy used across the build
// pipeline. Sentinel errors classify failures at the orchestrator and bot
// boundaries; Wrap attaches component context while preserving the marker
// for errors.Is checks.
package services
