// Package settings implements the layered configuration resolver: a fixed
// key surface resolved against the persisted override store, the process
// environment, and compiled defaults, in that priority order. Overrides are
// validated on write and survive process restarts in SQLite.
package settings
