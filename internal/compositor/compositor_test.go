package compositor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"slidesmith/internal/media"
	"slidesmith/internal/plan"
)

type fakeExecutor struct {
	runs    [][]string
	probed  string
	probeFn func(args []string) (string, error)
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.runs = append(f.runs, append([]string{binary}, args...))
	return nil
}

func (f *fakeExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	if f.probeFn != nil {
		return f.probeFn(args)
	}
	return f.probed, nil
}

func TestProbeDuration(t *testing.T) {
	executor := &fakeExecutor{probed: "12.345000\n"}
	client, err := New("ffmpeg", "ffprobe", nil, WithExecutor(executor))
	if err != nil {
		t.Fatal(err)
	}
	seconds, err := client.ProbeDuration(context.Background(), "/vid/outro.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if seconds != 12.345 {
		t.Fatalf("seconds = %v", seconds)
	}
}

func TestRenderSlideshowOnlyRunsOnePass(t *testing.T) {
	executor := &fakeExecutor{}
	client, err := New("ffmpeg", "ffprobe", nil, WithExecutor(executor))
	if err != nil {
		t.Fatal(err)
	}

	p := testPlan()
	workDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "slideshow.mp4")
	if err := client.Render(context.Background(), p, workDir, out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(executor.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(executor.runs))
	}
	joined := strings.Join(executor.runs[0], " ")
	if !strings.HasSuffix(joined, out) {
		t.Fatalf("final arg should be the output path: %s", joined)
	}
}

func TestRenderWithAppendRunsThreePasses(t *testing.T) {
	executor := &fakeExecutor{}
	client, err := New("ffmpeg", "ffprobe", nil, WithExecutor(executor))
	if err != nil {
		t.Fatal(err)
	}

	p := testPlan()
	p.Append = &plan.AppendClip{Item: media.Item{Name: "outro.mp4", Path: "/vid/outro.mp4"}, Seconds: 15}
	p.Overlay = &plan.Overlay{Start: 0, End: 50, Position: "top-middle"}

	workDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "final.mp4")
	if err := client.Render(context.Background(), p, workDir, out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(executor.runs) != 3 {
		t.Fatalf("runs = %d, want slideshow + normalize + concat", len(executor.runs))
	}

	slideshow := strings.Join(executor.runs[0], " ")
	if strings.Contains(slideshow, "drawtext") {
		t.Errorf("overlay must be deferred to the concat pass: %s", slideshow)
	}
	concat := strings.Join(executor.runs[2], " ")
	if !strings.Contains(concat, "drawtext") {
		t.Errorf("concat pass should draw the countdown: %s", concat)
	}
	if !strings.HasSuffix(concat, out) {
		t.Errorf("concat output: %s", concat)
	}
}

func TestRenderRejectsEmptyPlan(t *testing.T) {
	client, err := New("ffmpeg", "ffprobe", nil, WithExecutor(&fakeExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Render(context.Background(), plan.Plan{}, t.TempDir(), "out.mp4"); err == nil {
		t.Fatal("expected an error for an empty plan")
	}
}
