package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"slidesmith/internal/build"
	"slidesmith/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.OutputFile = filepath.Join(cfg.Paths.DataDir, "slideshow.mp4")
	cfg.Slideshow.ImageFolder = t.TempDir()
	cfg.Workflow.EnableHeartbeat = false
	return &cfg
}

func TestStartStopLifecycle(t *testing.T) {
	d, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.LockFilePath == "" || status.SettingsDBPath == "" {
		t.Fatalf("status paths missing: %+v", status)
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestSubmitForwardsToWorkflow(t *testing.T) {
	d, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if sub := d.Submit(build.TriggerCLI); sub.Accepted {
		t.Fatal("submit before Start should be rejected")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	// The image folder is empty, so an accepted build fails quickly; the
	// submission itself must still be accepted.
	if sub := d.Submit(build.TriggerCLI); !sub.Accepted {
		t.Fatalf("submit rejected: %s", sub.Reason)
	}
	d.Stop()
}
