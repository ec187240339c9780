// Package logging builds the slog loggers used across slidesmith and
// provides shared attribute helpers and field name constants.
package logging
