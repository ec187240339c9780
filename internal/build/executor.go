package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"slidesmith/internal/config"
	"slidesmith/internal/logging"
	"slidesmith/internal/media"
	"slidesmith/internal/notifications"
	"slidesmith/internal/plan"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
	"slidesmith/internal/storage"
)

const fetchConcurrency = 4

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Renderer is the compositor surface the executor drives.
type Renderer interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Render(ctx context.Context, p plan.Plan, workDir, outputPath string) error
}

// NotifierFactory builds a notification service from per-build effective
// configuration.
type NotifierFactory func(enabled bool, topic string) notifications.Service

// StorageFactory maps a source name to a storage client.
type StorageFactory func(source string) storage.Client

// Option configures the executor.
type Option func(*Executor)

// WithStorageFactory injects storage clients (primarily for tests).
func WithStorageFactory(factory StorageFactory) Option {
	return func(e *Executor) {
		if factory != nil {
			e.clients = factory
		}
	}
}

// WithNotifierFactory injects the notification constructor.
func WithNotifierFactory(factory NotifierFactory) Option {
	return func(e *Executor) {
		if factory != nil {
			e.notify = factory
		}
	}
}

// WithRandSeed fixes the seed for the per-build random source.
func WithRandSeed(seed int64) Option {
	return func(e *Executor) {
		e.seed = func() int64 { return seed }
	}
}

// Executor runs one build end to end: validate, fetch, plan, render,
// publish, notify. It holds no per-build state; Execute may be called for
// consecutive builds.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *settings.Resolver
	renderer Renderer
	clients  StorageFactory
	notify   NotifierFactory
	seed     func() int64
}

// NewExecutor wires an executor against real storage and ntfy.
func NewExecutor(cfg *config.Config, logger *slog.Logger, resolver *settings.Resolver, renderer Renderer, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	executor := &Executor{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "executor"),
		resolver: resolver,
		renderer: renderer,
		clients:  defaultStorageFactory(cfg),
		notify: func(enabled bool, topic string) notifications.Service {
			return notifications.NewService(cfg, enabled, topic)
		},
		seed: func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

func defaultStorageFactory(cfg *config.Config) StorageFactory {
	local := storage.NewLocal()
	var remote *storage.WebDAV
	return func(source string) storage.Client {
		if source == config.SourceNextcloud {
			if remote == nil {
				remote = storage.NewNextcloudClient(cfg)
			}
			return remote
		}
		return local
	}
}

// Execute runs a single build. The returned record is always populated; the
// error mirrors Record.Error for failed builds.
func (e *Executor) Execute(ctx context.Context, trigger Trigger, tracker *Tracker) (*Record, error) {
	rec := newRecord(trigger)
	log := e.logger.With(
		logging.String(logging.FieldBuildID, rec.ID),
		logging.String(logging.FieldTrigger, string(trigger)),
	)
	log.Info("build started")

	snap, err := e.resolver.ResolveAll(ctx)
	if err != nil {
		return e.fail(ctx, log, tracker, rec, StageValidating, nil, err)
	}
	notifier := e.notify(snap.Bool(settings.KeyEnableNtfy), snap.String(settings.KeyNtfyTopic))
	if err := notifier.NotifyBuildStarted(ctx, string(trigger)); err != nil {
		log.Warn("start notification failed", logging.Error(err))
	}

	tracker.Set(StageValidating, "checking sources")
	inv, err := e.validate(ctx, snap, log)
	if err != nil {
		return e.fail(ctx, log, tracker, rec, StageValidating, notifier, err)
	}
	rec.SlideCount = len(inv.Images)

	workDir := filepath.Join(e.cfg.Paths.DataDir, "work", rec.ID)
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warn("cleanup failed", logging.String("work_dir", workDir), logging.Error(err))
		}
	}()

	tracker.Set(StageFetching, fmt.Sprintf("fetching %d images", len(inv.Images)))
	appendSeconds, err := e.fetch(ctx, snap, &inv, workDir, log)
	if err != nil {
		return e.fail(ctx, log, tracker, rec, StageFetching, notifier, err)
	}

	tracker.Set(StageAssembling, "computing timeline")
	profile := plan.Profile{
		Width:  e.cfg.Slideshow.Width,
		Height: e.cfg.Slideshow.Height,
		FPS:    e.cfg.Slideshow.FPS,
	}
	rng := newRand(e.seed())
	built, err := plan.Build(plan.Inputs{Inventory: inv, AppendSeconds: appendSeconds}, snap, profile, rng)
	if err != nil {
		return e.fail(ctx, log, tracker, rec, StageAssembling, notifier, err)
	}
	rec.Repeats = built.Repeats
	rec.Duration = built.TotalSeconds

	if built.Audio != nil {
		if err := e.prepareAudio(ctx, snap, inv, built.Audio, workDir, rec, log); err != nil {
			return e.fail(ctx, log, tracker, rec, StageAssembling, notifier, err)
		}
	}

	tracker.Set(StageEncoding, fmt.Sprintf("rendering %.0fs video", built.TotalSeconds))
	output := e.cfg.Paths.OutputFile
	uploadOnly := output == ""
	if uploadOnly {
		// No local destination configured: render into the work dir, which
		// is removed once the upload has landed.
		output = filepath.Join(workDir, "slideshow.mp4")
	}
	if err := e.renderer.Render(ctx, built, filepath.Join(workDir, "render"), output); err != nil {
		return e.fail(ctx, log, tracker, rec, StageEncoding, notifier, err)
	}
	rec.Output = output

	if uploadPath := snap.String(settings.KeyNextcloudUploadPath); uploadPath != "" {
		remote := path.Join(uploadPath, filepath.Base(output))
		tracker.Set(StageUploading, fmt.Sprintf("uploading to %s", remote))
		client := e.clients(config.SourceNextcloud)
		if err := client.Upload(ctx, output, remote); err != nil {
			return e.fail(ctx, log, tracker, rec, StageUploading, notifier, err)
		}
		if uploadOnly {
			rec.Output = remote
		}
		log.Info("upload complete", logging.String("remote_path", remote))
	}

	tracker.Set(StageNotifying, "announcing result")
	if err := notifier.NotifyBuildCompleted(ctx, rec.Output, rec.Elapsed()); err != nil {
		// Delivery problems never fail a finished build.
		log.Warn("completion notification failed", logging.Error(err))
	}

	rec.Outcome = OutcomeSuccess
	rec.FinishedAt = time.Now()
	tracker.Set(StageIdle, "")
	log.Info("build finished",
		logging.Int("slides", rec.SlideCount),
		logging.Int("repeats", rec.Repeats),
		logging.String("track", rec.Track),
		logging.Duration("elapsed", rec.Elapsed()),
	)
	return rec, nil
}

func (e *Executor) fail(ctx context.Context, log *slog.Logger, tracker *Tracker, rec *Record, stage Stage, notifier notifications.Service, err error) (*Record, error) {
	rec.Outcome = OutcomeFailure
	rec.FailedStage = stage
	rec.Error = err.Error()
	rec.FinishedAt = time.Now()
	tracker.Set(StageIdle, "")
	log.Error("build failed", logging.String(logging.FieldStage, string(stage)), logging.Error(err))
	if notifier != nil {
		if notifyErr := notifier.NotifyBuildFailed(ctx, err, string(stage)); notifyErr != nil {
			log.Warn("failure notification failed", logging.Error(notifyErr))
		}
	}
	return rec, err
}

// validate lists every configured source and aggregates what is missing so
// the operator sees all problems at once instead of one per run.
func (e *Executor) validate(ctx context.Context, snap settings.Snapshot, log *slog.Logger) (media.Inventory, error) {
	var problems []string
	var items []media.Item

	imageDir := e.imageDir(snap)
	imageClient := e.clients(snap.String(settings.KeyImageSource))
	entries, err := imageClient.List(ctx, imageDir)
	switch {
	case err != nil:
		problems = append(problems, fmt.Sprintf("image folder %q: %v", imageDir, err))
	default:
		items = append(items, entriesToItems(entries)...)
	}

	musicDir := snap.String(settings.KeyMusicFolder)
	musicClient := e.clients(snap.String(settings.KeyMusicSource))
	if musicDir != "" {
		musicEntries, err := musicClient.List(ctx, musicDir)
		if err != nil {
			// A slideshow without music is still a slideshow.
			log.Warn("music folder unavailable, building silent",
				logging.String("folder", musicDir), logging.Error(err))
		} else {
			items = append(items, entriesToItems(musicEntries)...)
		}
	}

	inv := media.Partition(items)

	if appendPath := snap.String(settings.KeyAppendVideoPath); appendPath != "" {
		appendClient := e.clients(snap.String(settings.KeyAppendVideoSource))
		if err := e.checkExists(ctx, appendClient, appendPath); err != nil {
			problems = append(problems, fmt.Sprintf("trailing clip %q: %v", appendPath, err))
		} else {
			inv.Append = &media.Item{
				Name: path.Base(appendPath),
				Path: appendPath,
				Kind: media.KindAppendVideo,
			}
		}
	}

	uploadPath := snap.String(settings.KeyNextcloudUploadPath)
	if uploadPath != "" {
		uploadClient := e.clients(config.SourceNextcloud)
		if _, err := uploadClient.List(ctx, uploadPath); err != nil && !errors.Is(err, services.ErrNotFound) {
			// A missing folder is created on upload; anything else would
			// waste a full render before failing.
			problems = append(problems, fmt.Sprintf("upload destination %q: %v", uploadPath, err))
		}
	}
	if e.cfg.Paths.OutputFile == "" && uploadPath == "" {
		problems = append(problems, "no output destination: set output_file or an upload path")
	}

	if len(problems) > 0 {
		return media.Inventory{}, services.Wrap(
			services.ErrValidation, "executor", "validate",
			strings.Join(problems, "; "), nil,
		)
	}
	if len(inv.Images) == 0 {
		return media.Inventory{}, services.Wrap(
			services.ErrEmptyInventory, "executor", "validate",
			fmt.Sprintf("no images in %q", imageDir), nil,
		)
	}
	return inv, nil
}

func (e *Executor) imageDir(snap settings.Snapshot) string {
	if snap.String(settings.KeyImageSource) == config.SourceNextcloud {
		return snap.String(settings.KeyNextcloudImagePath)
	}
	return e.cfg.Slideshow.ImageFolder
}

// checkExists verifies a single remote or local file without downloading it
// wholesale: it lists the parent folder and looks for the base name.
func (e *Executor) checkExists(ctx context.Context, client storage.Client, filePath string) error {
	entries, err := client.List(ctx, path.Dir(filePath))
	if err != nil {
		return err
	}
	base := path.Base(filePath)
	for _, entry := range entries {
		if !entry.Dir && entry.Name == base {
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, "executor", "validate", "file not found", nil)
}

// fetch localizes the images and the trailing clip, returning the clip's
// probed duration. Remote downloads run in parallel.
func (e *Executor) fetch(ctx context.Context, snap settings.Snapshot, inv *media.Inventory, workDir string, log *slog.Logger) (float64, error) {
	if snap.String(settings.KeyImageSource) == config.SourceNextcloud {
		client := e.clients(config.SourceNextcloud)
		imageDir := filepath.Join(workDir, "images")

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(fetchConcurrency)
		for i := range inv.Images {
			item := &inv.Images[i]
			local := filepath.Join(imageDir, item.Name)
			group.Go(func() error {
				if err := client.Fetch(groupCtx, item.Path, local); err != nil {
					return err
				}
				item.Path = local
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return 0, err
		}
		log.Info("images fetched", logging.Int("count", len(inv.Images)))
	}

	if inv.Append == nil {
		return 0, nil
	}
	clipPath := inv.Append.Path
	if snap.String(settings.KeyAppendVideoSource) == config.SourceNextcloud {
		client := e.clients(config.SourceNextcloud)
		local := filepath.Join(workDir, "append", inv.Append.Name)
		if err := client.Fetch(ctx, clipPath, local); err != nil {
			return 0, err
		}
		inv.Append.Path = local
		clipPath = local
	}
	seconds, err := e.renderer.ProbeDuration(ctx, clipPath)
	if err != nil {
		return 0, err
	}
	return seconds, nil
}

// prepareAudio localizes the selected track and reads its attribution
// sidecar when one exists.
func (e *Executor) prepareAudio(ctx context.Context, snap settings.Snapshot, inv media.Inventory, audio *plan.Audio, workDir string, rec *Record, log *slog.Logger) error {
	rec.Track = audio.Item.Name
	musicSource := snap.String(settings.KeyMusicSource)
	client := e.clients(musicSource)

	if musicSource == config.SourceNextcloud {
		local := filepath.Join(workDir, "music", audio.Item.Name)
		if err := client.Fetch(ctx, audio.Item.Path, local); err != nil {
			return err
		}
		audio.Item.Path = local
	}

	sidecar, ok := inv.Attributions[rec.Track]
	if !ok {
		return nil
	}
	sidecarPath := path.Join(snap.String(settings.KeyMusicFolder), sidecar)
	if musicSource != config.SourceNextcloud {
		sidecarPath = filepath.Join(snap.String(settings.KeyMusicFolder), sidecar)
	}
	body, err := client.Open(ctx, sidecarPath)
	if err != nil {
		log.Warn("attribution sidecar unreadable", logging.String("sidecar", sidecar), logging.Error(err))
		return nil
	}
	defer body.Close()
	text, err := io.ReadAll(io.LimitReader(body, 16*1024))
	if err != nil {
		log.Warn("attribution sidecar unreadable", logging.String("sidecar", sidecar), logging.Error(err))
		return nil
	}
	rec.Attribution = strings.TrimSpace(string(text))
	return nil
}

func entriesToItems(entries []storage.Entry) []media.Item {
	items := make([]media.Item, 0, len(entries))
	for _, entry := range entries {
		if entry.Dir {
			continue
		}
		items = append(items, media.Item{
			Name: entry.Name,
			Path: entry.Path,
			Kind: media.Classify(entry.Name),
			Size: entry.Size,
		})
	}
	return items
}
