package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"slidesmith/internal/config"
	"slidesmith/internal/settings"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Heartbeat and scheduling side effects are disabled by default so tests
// stay quiet unless they opt in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputFile = filepath.Join(base, "out", "slideshow.mp4")
	cfgVal.Paths.HeartbeatFile = filepath.Join(base, "data", "heartbeat")
	cfgVal.Slideshow.ImageFolder = filepath.Join(base, "images")
	cfgVal.Music.Folder = filepath.Join(base, "music")
	cfgVal.Workflow.EnableHeartbeat = false
	if err := os.MkdirAll(cfgVal.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	if err := os.MkdirAll(cfgVal.Slideshow.ImageFolder, 0o755); err != nil {
		t.Fatalf("mkdir image folder: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHeartbeat enables the heartbeat loop on the test config.
func WithHeartbeat(interval int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.EnableHeartbeat = true
		b.cfg.Workflow.HeartbeatInterval = interval
	}
}

// WithNextcloud points the test config at a WebDAV endpoint.
func WithNextcloud(url, username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Nextcloud.URL = url
		b.cfg.Nextcloud.Username = username
		b.cfg.Nextcloud.Password = password
	}
}

// MustOpenStore opens a settings store under the config's data directory and
// closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()
	store, err := settings.OpenStore(filepath.Join(cfg.Paths.DataDir, "settings.db"))
	if err != nil {
		t.Fatalf("open settings store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
