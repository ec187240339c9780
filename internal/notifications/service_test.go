package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slidesmith/internal/config"
	"slidesmith/internal/notifications"
)

func TestNewServiceReturnsNoopWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyURL = "https://ntfy.sh"
	svc := notifications.NewService(&cfg, false, "slideshow")
	if err := svc.NotifyBuildStarted(context.Background(), "cron"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyURL = "https://ntfy.sh"
	svc := notifications.NewService(&cfg, true, "")
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	var captured struct {
		path     string
		title    string
		tags     string
		priority string
		auth     string
		body     string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.path = r.URL.Path
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		captured.auth = r.Header.Get("Authorization")
		captured.body = string(body)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyURL = server.URL
	cfg.Notifications.NtfyToken = "tk_secret"
	svc := notifications.NewService(&cfg, true, "slideshow")

	if err := svc.NotifyBuildCompleted(context.Background(), "/out/slideshow.mp4", 95*time.Second); err != nil {
		t.Fatalf("NotifyBuildCompleted: %v", err)
	}
	if captured.path != "/slideshow" {
		t.Errorf("path = %q, want /slideshow", captured.path)
	}
	if captured.title != "Slidesmith - Build Complete" {
		t.Errorf("title = %q", captured.title)
	}
	if captured.body != "Slideshow ready in 1m35s\nFile: /out/slideshow.mp4" {
		t.Errorf("body = %q", captured.body)
	}
	if captured.priority != "high" {
		t.Errorf("priority = %q, want high", captured.priority)
	}
	if captured.auth != "Bearer tk_secret" {
		t.Errorf("authorization = %q", captured.auth)
	}

	if err := svc.NotifyBuildFailed(context.Background(), errors.New("no images found"), "validating"); err != nil {
		t.Fatalf("NotifyBuildFailed: %v", err)
	}
	if captured.body != "Slideshow build failed during validating: no images found" {
		t.Errorf("failure body = %q", captured.body)
	}
	if captured.tags != "slidesmith,error,alert" {
		t.Errorf("failure tags = %q", captured.tags)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyURL = server.URL
	svc := notifications.NewService(&cfg, true, "slideshow")
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected an error for a 403 response")
	}
}
