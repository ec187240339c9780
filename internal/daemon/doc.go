// Package daemon composes the settings store, build executor, workflow
// manager, and Matrix listener into a single lifecycle with flock-based
// locking to prevent multiple instances from fighting over the output
// file and the control room.
package daemon
