package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"slidesmith/internal/config"
	"slidesmith/internal/notifications"
	"slidesmith/internal/plan"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
	"slidesmith/internal/storage"
)

type fakeStorage struct {
	files        map[string][]byte
	fetched      []string
	uploads      []string
	uploadLocals []string
	listErr      map[string]error
}

func (f *fakeStorage) List(ctx context.Context, dir string) ([]storage.Entry, error) {
	if err, ok := f.listErr[dir]; ok {
		return nil, err
	}
	prefix := strings.TrimRight(dir, "/") + "/"
	var entries []storage.Entry
	for p := range f.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, storage.Entry{Name: rest, Path: p, Size: int64(len(f.files[p]))})
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "storage", "list", fmt.Sprintf("folder %q does not exist", dir), nil)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *fakeStorage) Fetch(ctx context.Context, remotePath, localPath string) error {
	data, ok := f.files[remotePath]
	if !ok {
		return services.Wrap(services.ErrNotFound, "storage", "fetch", remotePath, nil)
	}
	f.fetched = append(f.fetched, remotePath)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (f *fakeStorage) Upload(ctx context.Context, localPath, remotePath string) error {
	f.uploads = append(f.uploads, remotePath)
	f.uploadLocals = append(f.uploadLocals, localPath)
	return nil
}

func (f *fakeStorage) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	data, ok := f.files[remotePath]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "storage", "open", remotePath, nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeRenderer struct {
	probed   float64
	rendered []plan.Plan
	fail     error
}

func (f *fakeRenderer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.probed, nil
}

func (f *fakeRenderer) Render(ctx context.Context, p plan.Plan, workDir, outputPath string) error {
	if f.fail != nil {
		return f.fail
	}
	f.rendered = append(f.rendered, p)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

type fakeNotifier struct {
	started   int
	completed int
	failed    []string
	err       error
}

func (f *fakeNotifier) NotifyBuildStarted(ctx context.Context, trigger string) error {
	f.started++
	return f.err
}

func (f *fakeNotifier) NotifyBuildCompleted(ctx context.Context, output string, d time.Duration) error {
	f.completed++
	return f.err
}

func (f *fakeNotifier) NotifyBuildFailed(ctx context.Context, err error, stage string) error {
	f.failed = append(f.failed, stage)
	return f.err
}

func (f *fakeNotifier) TestNotification(ctx context.Context) error { return f.err }

var _ notifications.Service = (*fakeNotifier)(nil)

type fixture struct {
	executor *Executor
	storage  *fakeStorage
	renderer *fakeRenderer
	notifier *fakeNotifier
	cfg      config.Config
}

func newFixture(t *testing.T, mutate func(*config.Config, *fakeStorage)) *fixture {
	t.Helper()

	dataDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dataDir
	cfg.Paths.OutputFile = filepath.Join(dataDir, "out", "slideshow.mp4")
	cfg.Slideshow.ImageSource = config.SourceNextcloud
	cfg.Music.Source = config.SourceNextcloud
	cfg.Music.Folder = "/Music"
	cfg.Nextcloud.ImagePath = "/Photos/Slideshow"
	cfg.Nextcloud.UploadPath = "/Videos"

	store := &fakeStorage{files: map[string][]byte{
		"/Photos/Slideshow/1.jpg": []byte("img1"),
		"/Photos/Slideshow/2.jpg": []byte("img2"),
		"/Music/song.mp3":         []byte("mp3"),
		"/Music/song.md":          []byte("Music by Example Artist (CC-BY)"),
	}}
	if mutate != nil {
		mutate(&cfg, store)
	}

	settingsStore, err := settings.OpenStore(filepath.Join(dataDir, "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { settingsStore.Close() })
	resolver := settings.NewResolver(&cfg, settingsStore)

	renderer := &fakeRenderer{probed: 30}
	notifier := &fakeNotifier{}
	executor := NewExecutor(&cfg, nil, resolver, renderer,
		WithStorageFactory(func(string) storage.Client { return store }),
		WithNotifierFactory(func(bool, string) notifications.Service { return notifier }),
		WithRandSeed(7),
	)
	return &fixture{executor: executor, storage: store, renderer: renderer, notifier: notifier, cfg: cfg}
}

func TestExecuteHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	tracker := NewTracker()

	rec, err := f.executor.Execute(context.Background(), TriggerChat, tracker)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s (%s)", rec.Outcome, rec.Error)
	}
	if rec.SlideCount != 2 {
		t.Errorf("slide count = %d, want 2", rec.SlideCount)
	}
	if rec.Track != "song.mp3" {
		t.Errorf("track = %q", rec.Track)
	}
	if rec.Attribution != "Music by Example Artist (CC-BY)" {
		t.Errorf("attribution = %q", rec.Attribution)
	}
	if rec.Output != f.cfg.Paths.OutputFile {
		t.Errorf("output = %q", rec.Output)
	}
	if len(f.renderer.rendered) != 1 {
		t.Fatalf("renders = %d, want 1", len(f.renderer.rendered))
	}
	if got := f.renderer.rendered[0].Slides[0].Item.Path; !strings.HasSuffix(got, "1.jpg") || !filepath.IsAbs(got) {
		t.Errorf("slide path not localized: %q", got)
	}
	if len(f.storage.uploads) != 1 || f.storage.uploads[0] != "/Videos/slideshow.mp4" {
		t.Errorf("uploads = %v", f.storage.uploads)
	}
	if f.notifier.started != 1 || f.notifier.completed != 1 {
		t.Errorf("notifications: started=%d completed=%d", f.notifier.started, f.notifier.completed)
	}
	if tracker.Snapshot().Stage != StageIdle {
		t.Errorf("tracker left in stage %s", tracker.Snapshot().Stage)
	}
}

func TestExecuteEmptyInventory(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		delete(store.files, "/Photos/Slideshow/1.jpg")
		delete(store.files, "/Photos/Slideshow/2.jpg")
		store.files["/Photos/Slideshow/notes.txt"] = []byte("x")
	})

	rec, err := f.executor.Execute(context.Background(), TriggerCron, NewTracker())
	if !errors.Is(err, services.ErrEmptyInventory) {
		t.Fatalf("err = %v, want ErrEmptyInventory", err)
	}
	if rec.Outcome != OutcomeFailure || rec.FailedStage != StageValidating {
		t.Fatalf("record = %+v", rec)
	}
	if len(f.notifier.failed) != 1 || f.notifier.failed[0] != string(StageValidating) {
		t.Errorf("failure notifications = %v", f.notifier.failed)
	}
}

func TestExecuteAggregatesMissingResources(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		cfg.AppendVideo.Source = config.SourceNextcloud
		cfg.AppendVideo.Path = "/Clips/outro.mp4"
		delete(store.files, "/Photos/Slideshow/1.jpg")
		delete(store.files, "/Photos/Slideshow/2.jpg")
	})

	_, err := f.executor.Execute(context.Background(), TriggerCron, NewTracker())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "image folder") || !strings.Contains(msg, "trailing clip") {
		t.Fatalf("error should list every missing resource: %s", msg)
	}
}

func TestExecuteRejectsUnreachableUploadDestination(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		store.listErr = map[string]error{
			"/Videos": services.Wrap(services.ErrTransport, "storage", "list", "propfind /Videos: 502 Bad Gateway", nil),
		}
	})

	rec, err := f.executor.Execute(context.Background(), TriggerCron, NewTracker())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if rec.FailedStage != StageValidating {
		t.Fatalf("failed stage = %s", rec.FailedStage)
	}
	if !strings.Contains(err.Error(), `upload destination "/Videos"`) {
		t.Errorf("error should name the destination: %s", err)
	}
	if len(f.renderer.rendered) != 0 {
		t.Error("render should not start when the destination is unreachable")
	}
}

func TestExecuteUploadOnlyWithoutOutputFile(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		cfg.Paths.OutputFile = ""
	})

	rec, err := f.executor.Execute(context.Background(), TriggerChat, NewTracker())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.Output != "/Videos/slideshow.mp4" {
		t.Errorf("output = %q, want the remote path", rec.Output)
	}
	if len(f.storage.uploads) != 1 || f.storage.uploads[0] != "/Videos/slideshow.mp4" {
		t.Fatalf("uploads = %v", f.storage.uploads)
	}
	if _, err := os.Stat(f.storage.uploadLocals[0]); !os.IsNotExist(err) {
		t.Errorf("intermediate render not cleaned up: %v", err)
	}
}

func TestExecuteRequiresSomeDestination(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		cfg.Paths.OutputFile = ""
		cfg.Nextcloud.UploadPath = ""
	})

	_, err := f.executor.Execute(context.Background(), TriggerChat, NewTracker())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "no output destination") {
		t.Errorf("error = %s", err)
	}
}

func TestExecuteSilentWhenMusicMissing(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		delete(store.files, "/Music/song.mp3")
		delete(store.files, "/Music/song.md")
	})

	rec, err := f.executor.Execute(context.Background(), TriggerCron, NewTracker())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.Track != "" {
		t.Errorf("track = %q, want silent build", rec.Track)
	}
	if f.renderer.rendered[0].Audio != nil {
		t.Error("plan should carry no audio")
	}
}

func TestExecuteRenderFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.renderer.fail = errors.New("ffmpeg exited with status 1")

	rec, err := f.executor.Execute(context.Background(), TriggerChat, NewTracker())
	if err == nil {
		t.Fatal("expected render failure")
	}
	if rec.FailedStage != StageEncoding {
		t.Fatalf("failed stage = %s", rec.FailedStage)
	}
	if len(f.storage.uploads) != 0 {
		t.Error("nothing should be uploaded after a render failure")
	}
}

func TestExecuteNotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.err = errors.New("ntfy unreachable")

	rec, err := f.executor.Execute(context.Background(), TriggerChat, NewTracker())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.Outcome != OutcomeSuccess {
		t.Fatalf("outcome = %s", rec.Outcome)
	}
}

func TestExecuteAppendClip(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, store *fakeStorage) {
		cfg.AppendVideo.Source = config.SourceNextcloud
		cfg.AppendVideo.Path = "/Clips/outro.mp4"
		store.files["/Clips/outro.mp4"] = []byte("clip")
	})

	rec, err := f.executor.Execute(context.Background(), TriggerCron, NewTracker())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rendered := f.renderer.rendered[0]
	if rendered.Append == nil || rendered.Append.Seconds != 30 {
		t.Fatalf("append = %+v, want probed 30s clip", rendered.Append)
	}
	if rendered.SlideshowSeconds != rendered.TotalSeconds-30 {
		t.Errorf("slideshow not shortened: %+v", rendered)
	}
	if rec.Duration != rendered.TotalSeconds {
		t.Errorf("record duration = %v", rec.Duration)
	}
}
