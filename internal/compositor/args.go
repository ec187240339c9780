package compositor

import (
	"fmt"
	"strings"

	"slidesmith/internal/plan"
)

// concat demuxer requires single quotes inside paths to be escaped.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// SlideListFile renders the ffconcat playlist for the slideshow segment:
// every pass lists each slide with its display duration, and the output is
// trimmed with -t so the final pass lands exactly on the segment length.
func SlideListFile(p plan.Plan) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for pass := 0; pass < p.Repeats; pass++ {
		for _, slide := range p.Slides {
			fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(slide.Item.Path))
			fmt.Fprintf(&b, "duration %g\n", slide.Seconds)
		}
	}
	// The concat demuxer ignores the duration of the last entry unless the
	// file is repeated once more.
	if p.Repeats > 0 && len(p.Slides) > 0 {
		last := p.Slides[len(p.Slides)-1]
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(last.Item.Path))
	}
	return b.String()
}

// scaleFilter letterboxes arbitrary source images into the output geometry.
func scaleFilter(profile plan.Profile) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p",
		profile.Width, profile.Height, profile.Width, profile.Height, profile.FPS,
	)
}

// overlayFilter renders the countdown clock. The text shows minutes and
// seconds remaining until the overlay window ends and is only drawn inside
// the window.
func overlayFilter(o plan.Overlay) string {
	var x, y string
	switch o.Position {
	case "bottom-right":
		x, y = "w-text_w-40", "h-text_h-40"
	default: // top-middle
		x, y = "(w-text_w)/2", "40"
	}
	end := fmt.Sprintf("%g", o.End)
	text := fmt.Sprintf(
		`%%{eif\:trunc((%s-t)/60)\:d\:2}\:%%{eif\:mod(trunc(%s-t),60)\:d\:2}`,
		end, end,
	)
	return fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=96:box=1:boxcolor=black@0.5:boxborderw=16:x=%s:y=%s:enable='between(t,%g,%g)'",
		text, x, y, o.Start, o.End,
	)
}

// fadeFilter fades the music out and pads it so the track never ends the
// stream early.
func fadeFilter(a plan.Audio) string {
	return fmt.Sprintf("afade=t=out:st=%g:d=%g,apad", a.FadeStart, a.FadeSeconds)
}

// SlideshowArgs builds the ffmpeg invocation for the slideshow segment.
// The overlay is burned in here when no trailing clip follows; otherwise
// it is applied during the final concat so it can span both parts.
func SlideshowArgs(p plan.Plan, listPath, audioPath, outPath string, includeOverlay bool) []string {
	// ffmpeg binds options to the next file on the command line, so every
	// input must be declared before the first output option.
	args := []string{
		"-hide_banner", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
	}
	hasAudio := audioPath != "" && p.Audio != nil
	if hasAudio {
		args = append(args, "-i", audioPath)
	} else {
		// Silent track keeps the stream layout stable for later concat.
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}

	videoFilter := scaleFilter(p.Profile)
	if includeOverlay && p.Overlay != nil {
		videoFilter += "," + overlayFilter(*p.Overlay)
	}
	args = append(args, "-vf", videoFilter)

	if hasAudio {
		args = append(args, "-af", fadeFilter(*p.Audio))
	} else {
		args = append(args, "-shortest")
	}
	args = append(args, "-c:a", "aac", "-b:a", "192k")

	args = append(args,
		"-c:v", "libx264", "-preset", "medium", "-crf", "20",
		"-r", fmt.Sprint(p.Profile.FPS),
		"-t", fmt.Sprintf("%g", p.SlideshowSeconds),
		"-movflags", "+faststart",
		outPath,
	)
	return args
}

// AppendArgs re-encodes the trailing clip into the slideshow geometry and
// codec so the concat demuxer can join the parts without stream mismatch.
func AppendArgs(p plan.Plan, clipPath, outPath string) []string {
	return []string{
		"-hide_banner", "-y",
		"-i", clipPath,
		"-vf", scaleFilter(p.Profile),
		"-r", fmt.Sprint(p.Profile.FPS),
		"-c:v", "libx264", "-preset", "medium", "-crf", "20",
		"-c:a", "aac", "-b:a", "192k", "-ar", "44100", "-ac", "2",
		"-t", fmt.Sprintf("%g", p.Append.Seconds),
		"-movflags", "+faststart",
		outPath,
	}
}

// ConcatListFile renders the playlist joining the finished parts.
func ConcatListFile(parts []string) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, part := range parts {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(part))
	}
	return b.String()
}

// ConcatArgs joins the slideshow and trailing clip. With an overlay the
// join re-encodes so the countdown can be drawn across the boundary;
// without one the parts are stream-copied.
func ConcatArgs(p plan.Plan, listPath, outPath string) []string {
	args := []string{
		"-hide_banner", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
	}
	if p.Overlay != nil {
		args = append(args,
			"-vf", overlayFilter(*p.Overlay),
			"-c:v", "libx264", "-preset", "medium", "-crf", "20",
			"-c:a", "copy",
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, "-movflags", "+faststart", outPath)
	return args
}

// ProbeArgs asks ffprobe for a container duration in plain seconds.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}
