// Package build runs one slideshow build end to end: validate the
// configured sources, fetch remote files, compute the assembly plan,
// render with the compositor, publish the result, and announce it. The
// executor reads effective configuration once per build; mid-build setting
// changes apply to the next run.
package build
