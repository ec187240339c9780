package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"slidesmith/internal/bot"
	"slidesmith/internal/build"
	"slidesmith/internal/chat"
	"slidesmith/internal/compositor"
	"slidesmith/internal/config"
	"slidesmith/internal/logging"
	"slidesmith/internal/notifications"
	"slidesmith/internal/preflight"
	"slidesmith/internal/settings"
	"slidesmith/internal/workflow"
)

// Daemon composes the long-running services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *settings.Store
	resolver   *settings.Resolver
	executor   *build.Executor
	workflow   *workflow.Manager
	matrix     *chat.Client
	dispatcher *bot.Dispatcher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	checksMu sync.Mutex
	checks   []preflight.Result
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	Workflow       workflow.Status
	Checks         []preflight.Result
	SettingsDBPath string
	LockFilePath   string
	PID            int
}

// controlSurface adapts the daemon to the dispatcher's Controller interface.
type controlSurface struct {
	d *Daemon
}

func (c controlSurface) Submit(trigger build.Trigger) workflow.Submission {
	return c.d.workflow.Submit(trigger)
}

func (c controlSurface) Status(ctx context.Context) workflow.Status {
	return c.d.workflow.Status(ctx)
}

func (c controlSurface) Health() []preflight.Result {
	return c.d.Health()
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "settings.db")
	store, err := settings.OpenStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	resolver := settings.NewResolver(cfg, store)

	renderer, err := compositor.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init compositor: %w", err)
	}

	executor := build.NewExecutor(cfg, logger, resolver, renderer)
	manager := workflow.NewManager(cfg, logger, resolver, executor)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		resolver: resolver,
		executor: executor,
		workflow: manager,
		lockPath: filepath.Join(cfg.Paths.DataDir, "slidesmithd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if cfg.Matrix.Homeserver != "" && cfg.Matrix.AccessToken != "" && cfg.Matrix.RoomID != "" {
		d.matrix = chat.NewClient(cfg, logger)
		d.dispatcher = bot.NewDispatcher(d.matrix, controlSurface{d}, resolver, cfg.Matrix.AllowedSenders, logger)
		manager.SetOnComplete(d.announce)
	}
	return d, nil
}

// Start acquires the daemon lock and launches the workflow and the chat
// listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slidesmith daemon instance is already running")
	}

	checks := preflight.RunAll(ctx, d.cfg)
	d.checksMu.Lock()
	d.checks = checks
	d.checksMu.Unlock()
	for _, result := range checks {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name), logging.String("detail", result.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name), logging.String("detail", result.Detail))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.workflow.Start(d.ctx)

	if d.matrix != nil {
		if err := d.matrix.Join(d.ctx); err != nil {
			d.logger.Warn("joining control room failed, commands unavailable until restart", logging.Error(err))
		} else {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				if err := d.matrix.Listen(d.ctx, d.dispatcher.Handle); err != nil && !errors.Is(err, context.Canceled) {
					d.logger.Error("chat listener stopped", logging.Error(err))
				}
			}()
		}
	}

	d.running.Store(true)
	d.logger.Info("slidesmith daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("slidesmith daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for the IPC and CLI surfaces.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:        d.running.Load(),
		Workflow:       d.workflow.Status(ctx),
		Checks:         d.Health(),
		SettingsDBPath: d.store.Path(),
		LockFilePath:   d.lockPath,
		PID:            os.Getpid(),
	}
}

// Health returns the preflight results recorded at the last Start.
func (d *Daemon) Health() []preflight.Result {
	d.checksMu.Lock()
	defer d.checksMu.Unlock()
	out := make([]preflight.Result, len(d.checks))
	copy(out, d.checks)
	return out
}

// Submit requests a build on behalf of an IPC caller.
func (d *Daemon) Submit(trigger build.Trigger) workflow.Submission {
	return d.workflow.Submit(trigger)
}

// Resolver exposes the settings layer to the IPC service.
func (d *Daemon) Resolver() *settings.Resolver {
	return d.resolver
}

// PreviewPlan computes the plan a build would run right now.
func (d *Daemon) PreviewPlan(ctx context.Context) (*build.Preview, error) {
	return d.executor.PreviewPlan(ctx)
}

// TestNotification sends a test push through the currently effective ntfy
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	enabled, err := d.resolver.Resolve(ctx, settings.KeyEnableNtfy)
	if err != nil {
		return err
	}
	topic, err := d.resolver.Resolve(ctx, settings.KeyNtfyTopic)
	if err != nil {
		return err
	}
	if enabled.Raw != "true" || strings.TrimSpace(topic.Raw) == "" {
		return errors.New("notifications are disabled; set ENABLE_NTFY and NTFY_TOPIC first")
	}
	svc := notifications.NewService(d.cfg, true, topic.Raw)
	return svc.TestNotification(ctx)
}

// announce posts the build outcome into the control room.
func (d *Daemon) announce(rec *build.Record) {
	if d.matrix == nil || rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch rec.Outcome {
	case build.OutcomeSuccess:
		body := fmt.Sprintf("Slideshow ready: %s (%d slides, %s)",
			rec.Output, rec.SlideCount, rec.Elapsed().Round(time.Second))
		if rec.Attribution != "" {
			body += "\n" + rec.Attribution
		}
		if err := d.matrix.SendText(ctx, body); err != nil {
			d.logger.Warn("result announcement failed", logging.Error(err))
		}
	case build.OutcomeFailure:
		body := fmt.Sprintf("Build failed during %s: %s", rec.FailedStage, rec.Error)
		if err := d.matrix.SendText(ctx, body); err != nil {
			d.logger.Warn("failure announcement failed", logging.Error(err))
		}
	}
}
