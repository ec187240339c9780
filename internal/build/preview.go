package build

import (
	"context"
	"os"
	"path/filepath"

	"slidesmith/internal/config"
	"slidesmith/internal/plan"
	"slidesmith/internal/settings"
)

// Preview summarizes the plan a build would execute right now.
type Preview struct {
	SlideCount       int
	Repeats          int
	PerSlideSeconds  float64
	SlideshowSeconds float64
	AppendClip       string
	AppendSeconds    float64
	TotalSeconds     float64
	TrackCount       int
	SampleTrack      string
	OverlayStart     float64
	OverlayEnd       float64
	OverlayEnabled   bool
}

// PreviewPlan computes the assembly plan without rendering anything. A
// remote trailing clip is fetched to a temporary file so its duration can
// be probed; nothing else is downloaded. The music track shown is a sample
// draw; the real build draws its own.
func (e *Executor) PreviewPlan(ctx context.Context) (*Preview, error) {
	snap, err := e.resolver.ResolveAll(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := e.validate(ctx, snap, e.logger)
	if err != nil {
		return nil, err
	}

	var appendSeconds float64
	if inv.Append != nil {
		clipPath := inv.Append.Path
		if snap.String(settings.KeyAppendVideoSource) == config.SourceNextcloud {
			tmpDir, err := os.MkdirTemp("", "slidesmith-preview-")
			if err != nil {
				return nil, err
			}
			defer os.RemoveAll(tmpDir)
			local := filepath.Join(tmpDir, inv.Append.Name)
			client := e.clients(config.SourceNextcloud)
			if err := client.Fetch(ctx, clipPath, local); err != nil {
				return nil, err
			}
			clipPath = local
		}
		appendSeconds, err = e.renderer.ProbeDuration(ctx, clipPath)
		if err != nil {
			return nil, err
		}
	}

	profile := plan.Profile{
		Width:  e.cfg.Slideshow.Width,
		Height: e.cfg.Slideshow.Height,
		FPS:    e.cfg.Slideshow.FPS,
	}
	rng := newRand(e.seed())
	built, err := plan.Build(plan.Inputs{Inventory: inv, AppendSeconds: appendSeconds}, snap, profile, rng)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		SlideCount:       len(built.Slides),
		Repeats:          built.Repeats,
		PerSlideSeconds:  built.PerSlideSeconds,
		SlideshowSeconds: built.SlideshowSeconds,
		TotalSeconds:     built.TotalSeconds,
		TrackCount:       len(inv.Tracks),
	}
	if built.Append != nil {
		preview.AppendClip = built.Append.Item.Name
		preview.AppendSeconds = built.Append.Seconds
	}
	if built.Audio != nil {
		preview.SampleTrack = built.Audio.Item.Name
	}
	if built.Overlay != nil {
		preview.OverlayEnabled = true
		preview.OverlayStart = built.Overlay.Start
		preview.OverlayEnd = built.Overlay.End
	}
	return preview, nil
}
