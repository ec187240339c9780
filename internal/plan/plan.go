package plan

import (
	"fmt"
	"math/rand"

	"slidesmith/internal/media"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
)

// Audio fade defaults: the music fades over 10 seconds and ends 5 seconds
// before the slideshow does, leaving a silent tail.
const (
	FadeSeconds            = 10.0
	TrailingSilenceSeconds = 5.0
)

// Slide is one image with its display time for a single pass.
type Slide struct {
	Item    media.Item
	Seconds float64
}

// AppendClip is the optional trailing video. Seconds is supplied by the
// caller (probed externally); the planner never does I/O.
type AppendClip struct {
	Item    media.Item
	Seconds float64
}

// Audio is the selected background track with its fade window.
type Audio struct {
	Item media.Item
	// FadeStart is the offset where the fade-out begins, relative to the
	// start of the slideshow segment.
	FadeStart       float64
	FadeSeconds     float64
	TrailingSilence float64
}

// Overlay is the countdown window, expressed as offsets into the full clip.
type Overlay struct {
	Start    float64
	End      float64
	Position string
}

// Profile carries the render geometry fixed by static configuration.
type Profile struct {
	Width  int
	Height int
	FPS    int
}

// Plan is the computed timeline for one build. It is a value type,
// recomputed fresh per build and never cached across builds.
type Plan struct {
	// Slides is a single ordered pass; the pass runs Repeats times and the
	// final pass is trimmed so the segment lasts exactly SlideshowSeconds.
	Slides           []Slide
	Repeats          int
	PerSlideSeconds  float64
	SlideshowSeconds float64
	Append           *AppendClip
	Audio            *Audio
	Overlay          *Overlay
	TotalSeconds     float64
	Profile          Profile
}

// Inputs bundles everything the planner consumes besides configuration.
type Inputs struct {
	Inventory media.Inventory
	// AppendSeconds is the probed duration of Inventory.Append, zero when
	// no clip is configured.
	AppendSeconds float64
}

// SlideNames returns the ordered base names of the included slides.
func (p Plan) SlideNames() []string {
	names := make([]string, 0, len(p.Slides))
	for _, slide := range p.Slides {
		names = append(names, slide.Item.Name)
	}
	return names
}

// Build computes the assembly plan. It is pure and deterministic for a
// given rand source; callers pass a seeded source in tests.
func Build(in Inputs, snap settings.Snapshot, profile Profile, rng *rand.Rand) (Plan, error) {
	if len(in.Inventory.Images) == 0 {
		return Plan{}, services.Wrap(services.ErrEmptyInventory, "planner", "partition", "no images in source folder", nil)
	}

	slideSeconds := float64(snap.Int(settings.KeyImageDuration))
	targetSeconds := float64(snap.Int(settings.KeyTargetDuration))
	if slideSeconds <= 0 || targetSeconds <= 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "planner", "config", "image and target durations must be positive", nil)
	}

	appendSeconds := 0.0
	var appendClip *AppendClip
	if in.Inventory.Append != nil && in.AppendSeconds > 0 {
		appendSeconds = in.AppendSeconds
		if appendSeconds > targetSeconds {
			appendSeconds = targetSeconds
		}
		appendClip = &AppendClip{Item: *in.Inventory.Append, Seconds: appendSeconds}
	}

	remainder := targetSeconds - appendSeconds

	p := Plan{
		Append:       appendClip,
		TotalSeconds: targetSeconds,
		Profile:      profile,
	}

	if remainder > 0 {
		if remainder < slideSeconds {
			return Plan{}, services.Wrap(
				services.ErrDurationTooShort,
				"planner", "layout",
				fmt.Sprintf("%.0fs remain for the slideshow but one slide needs %.0fs", remainder, slideSeconds),
				nil,
			)
		}

		slides := make([]Slide, 0, len(in.Inventory.Images))
		for _, item := range in.Inventory.Images {
			slides = append(slides, Slide{Item: item, Seconds: slideSeconds})
		}

		// Minimal repeat count whose full sequence covers the remaining
		// time; the final pass is trimmed to land exactly on target.
		sequenceSeconds := slideSeconds * float64(len(slides))
		repeats := int(remainder / sequenceSeconds)
		if float64(repeats)*sequenceSeconds < remainder {
			repeats++
		}
		if repeats < 1 {
			repeats = 1
		}

		p.Slides = slides
		p.Repeats = repeats
		p.PerSlideSeconds = slideSeconds
		p.SlideshowSeconds = remainder

		if track, ok := pickTrack(in.Inventory.Tracks, rng); ok {
			p.Audio = audioWindow(track, remainder)
		}
	}

	if snap.Bool(settings.KeyEnableTimer) {
		minutes := snap.Int(settings.KeyTimerMinutes)
		start := targetSeconds - float64(minutes)*60
		if start < 0 {
			start = 0
		}
		p.Overlay = &Overlay{
			Start:    start,
			End:      targetSeconds,
			Position: snap.String(settings.KeyTimerPosition),
		}
	}

	return p, nil
}

func pickTrack(tracks []media.Item, rng *rand.Rand) (media.Item, bool) {
	if len(tracks) == 0 || rng == nil {
		return media.Item{}, false
	}
	return tracks[rng.Intn(len(tracks))], true
}

func audioWindow(track media.Item, segmentSeconds float64) *Audio {
	fade := FadeSeconds
	silence := TrailingSilenceSeconds
	fadeStart := segmentSeconds - fade - silence
	if fadeStart < 0 {
		fadeStart = 0
		fade = segmentSeconds - silence
		if fade < 0 {
			fade = 0
			silence = segmentSeconds
		}
	}
	return &Audio{
		Item:            track,
		FadeStart:       fadeStart,
		FadeSeconds:     fade,
		TrailingSilence: silence,
	}
}
