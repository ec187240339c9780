// Package preflight provides readiness checks for external services
// and filesystem paths that Slidesmith depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs any failures before the
//     scheduler starts, so a misconfigured server is visible immediately.
//   - The CLI "slidesmith status" command displays the same checks as a
//     health table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
