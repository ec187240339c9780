// Package plan computes the deterministic assembly timeline for one build:
// slide order and repeat count, the trimmed final pass, the audio fade
// window, and the countdown overlay window. The planner does no I/O; probed
// durations and the media inventory are passed in.
package plan
