package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"slidesmith/internal/build"
	"slidesmith/internal/config"
	"slidesmith/internal/logging"
	"slidesmith/internal/schedule"
	"slidesmith/internal/services"
	"slidesmith/internal/settings"
)

// scheduleRecheck bounds how long a CRON_SCHEDULE change can go unnoticed.
const scheduleRecheck = time.Minute

// Executor is the build surface the manager drives.
type Executor interface {
	Execute(ctx context.Context, trigger build.Trigger, tracker *build.Tracker) (*build.Record, error)
}

// Submission is the answer to a build request.
type Submission struct {
	Accepted bool
	BuildID  string
	// Reason is set when the request was rejected. Err carries the matching
	// sentinel so callers can branch without parsing the text.
	Reason string
	Err    error
}

// Status is a point-in-time view of the daemon for chat and CLI surfaces.
type Status struct {
	Running   bool
	Trigger   build.Trigger
	StartedAt time.Time
	Progress  build.Progress
	Last      *build.Record
	Schedule  string
	NextRun   time.Time
	Uptime    time.Duration
	Heartbeat bool
}

// Manager owns the build lifecycle: it enforces the one-build-at-a-time
// rule, fires scheduled builds, and refreshes the heartbeat file.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	resolver *settings.Resolver
	executor Executor
	tracker  *build.Tracker

	mu        sync.Mutex
	running   bool
	trigger   build.Trigger
	buildID   string
	runStart  time.Time
	last      *build.Record
	startedAt time.Time

	onComplete func(*build.Record)

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SetOnComplete registers a callback invoked after every finished build,
// success or failure. Must be called before Start.
func (m *Manager) SetOnComplete(fn func(*build.Record)) {
	m.onComplete = fn
}

// NewManager wires a manager. Start must be called before Submit.
func NewManager(cfg *config.Config, logger *slog.Logger, resolver *settings.Resolver, executor Executor) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "workflow"),
		resolver: resolver,
		executor: executor,
		tracker:  build.NewTracker(),
	}
}

// Start launches the scheduler and heartbeat loops.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baseCtx != nil {
		return
	}
	m.startedAt = time.Now()
	m.baseCtx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.scheduleLoop()

	if m.cfg.Workflow.EnableHeartbeat || m.cfg.Paths.HeartbeatFile != "" {
		m.wg.Add(1)
		go m.heartbeatLoop()
	}
	m.logger.Info("workflow started")
}

// Stop cancels the loops and waits for a running build to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

// Submit requests a build. At most one build runs at a time; a request
// arriving while one is in flight is rejected, never queued.
func (m *Manager) Submit(trigger build.Trigger) Submission {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.baseCtx == nil {
		return Submission{Reason: "workflow not started"}
	}
	if m.running {
		return Submission{
			Reason: fmt.Sprintf("a %s build is already running", m.trigger),
			Err:    services.ErrAlreadyRunning,
		}
	}

	m.running = true
	m.trigger = trigger
	m.runStart = time.Now()
	m.buildID = ""

	m.wg.Add(1)
	go m.run(trigger)
	return Submission{Accepted: true}
}

func (m *Manager) run(trigger build.Trigger) {
	defer m.wg.Done()

	rec, err := m.executor.Execute(m.baseCtx, trigger, m.tracker)
	if err != nil && !services.IsPlanFailure(err) {
		m.logger.Error("build failed", logging.Error(err))
	}

	m.mu.Lock()
	m.running = false
	if rec != nil {
		m.last = rec
		m.buildID = rec.ID
	}
	onComplete := m.onComplete
	m.mu.Unlock()

	if onComplete != nil && rec != nil {
		onComplete(rec)
	}
}

// Status reports the manager's current view, including the next scheduled
// fire computed from the live CRON_SCHEDULE value.
func (m *Manager) Status(ctx context.Context) Status {
	m.mu.Lock()
	status := Status{
		Running:   m.running,
		Trigger:   m.trigger,
		StartedAt: m.runStart,
		Last:      m.last,
		Uptime:    time.Since(m.startedAt),
		Progress:  m.tracker.Snapshot(),
	}
	m.mu.Unlock()

	expr, sched, err := m.currentSchedule(ctx)
	if err == nil {
		status.Schedule = expr
		status.NextRun = sched.Next(time.Now())
	}
	status.Heartbeat = m.heartbeatEnabled(ctx)
	return status
}

// currentSchedule resolves CRON_SCHEDULE fresh so overrides apply to the
// next cycle without a restart.
func (m *Manager) currentSchedule(ctx context.Context) (string, schedule.Schedule, error) {
	value, err := m.resolver.Resolve(ctx, settings.KeyCronSchedule)
	if err != nil {
		return "", schedule.Schedule{}, err
	}
	sched, err := schedule.Parse(value.Raw)
	if err != nil {
		return "", schedule.Schedule{}, err
	}
	return value.Raw, sched, nil
}

func (m *Manager) heartbeatEnabled(ctx context.Context) bool {
	value, err := m.resolver.Resolve(ctx, settings.KeyEnableHeartbeat)
	if err != nil {
		return false
	}
	return value.Raw == "true"
}

func (m *Manager) scheduleLoop() {
	defer m.wg.Done()

	for {
		_, sched, err := m.currentSchedule(m.baseCtx)
		if err != nil {
			m.logger.Warn("schedule unavailable", logging.Error(err))
			if !m.sleep(scheduleRecheck) {
				return
			}
			continue
		}

		next := sched.Next(time.Now())
		wait := time.Until(next)
		if wait > scheduleRecheck {
			// Re-resolve before the fire in case the schedule changes.
			wait = scheduleRecheck
		}
		if !m.sleep(wait) {
			return
		}
		if time.Now().Before(next) {
			continue
		}

		submission := m.Submit(build.TriggerCron)
		if !submission.Accepted {
			m.logger.Warn("scheduled build skipped", logging.String("reason", submission.Reason))
		}
	}
}

func (m *Manager) heartbeatLoop() {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.Workflow.HeartbeatInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.touchHeartbeat()
	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.touchHeartbeat()
		}
	}
}

// touchHeartbeat refreshes the heartbeat file's mtime so an external
// watchdog can tell the daemon is alive.
func (m *Manager) touchHeartbeat() {
	if !m.heartbeatEnabled(m.baseCtx) {
		return
	}
	path := m.cfg.Paths.HeartbeatFile
	if path == "" {
		return
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("heartbeat refresh failed", logging.Error(err))
			return
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			m.logger.Warn("heartbeat create failed", logging.Error(err))
			return
		}
		file.Close()
	}
}

func (m *Manager) sleep(d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	select {
	case <-m.baseCtx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
