package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"slidesmith/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "stopped", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] stopped")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestRenderStatusIdleDaemon(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:  true,
		Schedule: "0 1 * * 5",
		NextRun:  time.Date(2025, 6, 6, 1, 0, 0, 0, time.Local),
		PID:      4242,
	}
	out := renderStatus(status, false)
	if !strings.Contains(out, "[OK] running (pid 4242)") {
		t.Fatalf("missing running line:\n%s", out)
	}
	if !strings.Contains(out, "[OK] idle") {
		t.Fatalf("missing idle build line:\n%s", out)
	}
	if !strings.Contains(out, "0 1 * * 5") {
		t.Fatalf("missing schedule:\n%s", out)
	}
	if strings.Contains(out, "Last build") {
		t.Fatalf("no last build section expected:\n%s", out)
	}
}

func TestRenderStatusChecksSection(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:  true,
		Schedule: "0 1 * * 5",
		Checks: []ipc.CheckStatus{
			{Name: "FFmpeg", Passed: true, Detail: "found at /usr/bin/ffmpeg"},
			{Name: "Nextcloud", Passed: false, Detail: "connection refused"},
		},
	}
	out := renderStatus(status, false)
	if !strings.Contains(out, "== Checks ==") {
		t.Fatalf("missing checks section:\n%s", out)
	}
	if !strings.Contains(out, "[OK] found at /usr/bin/ffmpeg") {
		t.Fatalf("missing passing check:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] connection refused") {
		t.Fatalf("missing failing check:\n%s", out)
	}
}

func TestRenderStatusFailedBuild(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:  true,
		Schedule: "0 1 * * 5",
		Last: &ipc.BuildSummary{
			Outcome:     "failure",
			FailedStage: "validating",
			Error:       "image folder is empty",
			FinishedAt:  time.Now(),
		},
	}
	out := renderStatus(status, false)
	if !strings.Contains(out, "[ERROR] validating stage: image folder is empty") {
		t.Fatalf("missing failure detail:\n%s", out)
	}
}

func TestRenderStatusSuccessfulBuild(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:  true,
		Building: true,
		Stage:    "encoding",
		Schedule: "0 1 * * 5",
		Last: &ipc.BuildSummary{
			Outcome:    "success",
			SlideCount: 12,
			Repeats:    5,
			Track:      "song.mp3",
			Output:     "/videos/slideshow.mp4",
			FinishedAt: time.Now(),
		},
	}
	out := renderStatus(status, false)
	if !strings.Contains(out, "12 slides x 5 passes, music song.mp3") {
		t.Fatalf("missing success detail:\n%s", out)
	}
	if !strings.Contains(out, "/videos/slideshow.mp4") {
		t.Fatalf("missing output path:\n%s", out)
	}
	if !strings.Contains(out, "[INFO] encoding") {
		t.Fatalf("missing in-flight stage:\n%s", out)
	}
}
