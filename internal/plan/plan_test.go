package plan

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"slidesmith/internal/media"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
)

func snapshot(t *testing.T, overrides map[settings.Key]string) settings.Snapshot {
	t.Helper()
	raw := map[settings.Key]string{
		settings.KeyImageDuration:  "10",
		settings.KeyTargetDuration: "600",
		settings.KeyEnableTimer:    "false",
		settings.KeyTimerMinutes:   "5",
		settings.KeyTimerPosition:  "top-middle",
	}
	for k, v := range overrides {
		raw[k] = v
	}
	return settings.SnapshotFromRaw(raw)
}

func images(names ...string) []media.Item {
	items := make([]media.Item, 0, len(names))
	for _, name := range names {
		items = append(items, media.Item{Name: name, Path: "/img/" + name, Kind: media.KindImage})
	}
	return items
}

func testProfile() Profile {
	return Profile{Width: 1920, Height: 1080, FPS: 5}
}

func TestBuildRepeatsToFillTarget(t *testing.T) {
	// 3 images x 10s = 30s per pass; 600s target needs 20 full passes.
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg", "2.jpg", "3.jpg")}}
	p, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Repeats != 20 {
		t.Fatalf("repeats = %d, want 20", p.Repeats)
	}
	if p.SlideshowSeconds != 600 {
		t.Fatalf("slideshow seconds = %v, want 600", p.SlideshowSeconds)
	}
	if p.TotalSeconds != 600 {
		t.Fatalf("total seconds = %v, want 600", p.TotalSeconds)
	}
}

func TestBuildTrimsFinalPass(t *testing.T) {
	// 7 images x 10s = 70s per pass; 600s needs 9 passes (630s) trimmed
	// back to exactly 600.
	in := Inputs{Inventory: media.Inventory{Images: images("a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg", "g.jpg")}}
	p, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Repeats != 9 {
		t.Fatalf("repeats = %d, want 9", p.Repeats)
	}
	if got := float64(p.Repeats) * p.PerSlideSeconds * float64(len(p.Slides)); got < p.SlideshowSeconds {
		t.Fatalf("untrimmed passes (%vs) shorter than segment (%vs)", got, p.SlideshowSeconds)
	}
	if p.SlideshowSeconds != 600 {
		t.Fatalf("slideshow seconds = %v, want 600", p.SlideshowSeconds)
	}
}

func TestBuildEmptyInventory(t *testing.T) {
	_, err := Build(Inputs{}, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, services.ErrEmptyInventory) {
		t.Fatalf("err = %v, want ErrEmptyInventory", err)
	}
}

func TestBuildDurationTooShort(t *testing.T) {
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg")}}
	snap := snapshot(t, map[settings.Key]string{
		settings.KeyImageDuration:  "30",
		settings.KeyTargetDuration: "20",
	})
	_, err := Build(in, snap, testProfile(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, services.ErrDurationTooShort) {
		t.Fatalf("err = %v, want ErrDurationTooShort", err)
	}
}

func TestBuildAppendClipShortensSlideshow(t *testing.T) {
	appendItem := media.Item{Name: "outro.mp4", Path: "/vid/outro.mp4", Kind: media.KindAppendVideo}
	in := Inputs{
		Inventory:     media.Inventory{Images: images("1.jpg", "2.jpg"), Append: &appendItem},
		AppendSeconds: 45,
	}
	p, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Append == nil || p.Append.Seconds != 45 {
		t.Fatalf("append = %+v, want 45s clip", p.Append)
	}
	if p.SlideshowSeconds != 555 {
		t.Fatalf("slideshow seconds = %v, want 555", p.SlideshowSeconds)
	}
	if p.TotalSeconds != 600 {
		t.Fatalf("total seconds = %v, want 600", p.TotalSeconds)
	}
}

func TestBuildAudioFadeWindow(t *testing.T) {
	in := Inputs{Inventory: media.Inventory{
		Images: images("1.jpg"),
		Tracks: []media.Item{{Name: "song.mp3", Path: "/music/song.mp3", Kind: media.KindAudio}},
	}}
	p, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Audio == nil {
		t.Fatal("expected an audio selection")
	}
	if p.Audio.FadeStart != 585 {
		t.Fatalf("fade start = %v, want 585", p.Audio.FadeStart)
	}
	if p.Audio.FadeSeconds != FadeSeconds || p.Audio.TrailingSilence != TrailingSilenceSeconds {
		t.Fatalf("fade window = %+v", p.Audio)
	}
	// Audio ends TrailingSilence before the slideshow segment does.
	if end := p.Audio.FadeStart + p.Audio.FadeSeconds; math.Abs(end-(p.SlideshowSeconds-p.Audio.TrailingSilence)) > 1e-9 {
		t.Fatalf("audio ends at %v, want %v", end, p.SlideshowSeconds-p.Audio.TrailingSilence)
	}
}

func TestBuildAudioSelectionDeterministicForSeed(t *testing.T) {
	tracks := []media.Item{
		{Name: "a.mp3", Kind: media.KindAudio},
		{Name: "b.mp3", Kind: media.KindAudio},
		{Name: "c.mp3", Kind: media.KindAudio},
	}
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg"), Tracks: tracks}}

	first, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.Audio.Item.Name != second.Audio.Item.Name {
		t.Fatalf("same seed picked %q then %q", first.Audio.Item.Name, second.Audio.Item.Name)
	}
}

func TestBuildOverlayWindow(t *testing.T) {
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg")}}
	snap := snapshot(t, map[settings.Key]string{
		settings.KeyEnableTimer:   "true",
		settings.KeyTimerMinutes:  "5",
		settings.KeyTimerPosition: "bottom-right",
	})
	p, err := Build(in, snap, testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Overlay == nil {
		t.Fatal("expected an overlay window")
	}
	if p.Overlay.Start != 300 || p.Overlay.End != 600 {
		t.Fatalf("overlay window = [%v, %v], want [300, 600]", p.Overlay.Start, p.Overlay.End)
	}
	if p.Overlay.Position != "bottom-right" {
		t.Fatalf("overlay position = %q", p.Overlay.Position)
	}
}

func TestBuildOverlayWindowClipsToClipStart(t *testing.T) {
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg")}}
	snap := snapshot(t, map[settings.Key]string{
		settings.KeyTargetDuration: "120",
		settings.KeyEnableTimer:    "true",
		settings.KeyTimerMinutes:   "5",
	})
	p, err := Build(in, snap, testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Overlay.Start != 0 || p.Overlay.End != 120 {
		t.Fatalf("overlay window = [%v, %v], want [0, 120]", p.Overlay.Start, p.Overlay.End)
	}
}

func TestBuildSlideNames(t *testing.T) {
	in := Inputs{Inventory: media.Inventory{Images: images("1.jpg", "2.jpg")}}
	p, err := Build(in, snapshot(t, nil), testProfile(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	names := p.SlideNames()
	if len(names) != 2 || names[0] != "1.jpg" || names[1] != "2.jpg" {
		t.Fatalf("slide names = %v", names)
	}
}
