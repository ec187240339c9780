// Package main hosts the slidesmith CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the daemon: build triggering, plan previews, runtime
// setting management, notification tests, and configuration scaffolding.
// It centralizes configuration resolution and socket discovery so
// subcommands can focus on user experience instead of wiring.
package main
