// Package compositor turns an assembly plan into an MP4 by driving ffmpeg:
// a concat-demuxer slideshow pass with the audio fade, an optional
// normalization pass for the trailing clip, and a final join. Argument
// construction is kept in pure functions so the exact invocations are
// testable without running ffmpeg.
package compositor
