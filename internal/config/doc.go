// Package config loads and validates the static slidesmith configuration.
//
// Values come from a TOML file plus recognized environment variables. The
// result seeds the default layer of the settings resolver; it never changes
// for the lifetime of the process.
package config
