package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidesmith/internal/config"
)

const userAgent = "Slidesmith/0.1.0"

// Service defines the notification surface exposed to the build pipeline.
// Implementations must be safe to call with a nil receiver path in mind:
// callers treat notification failures as non-fatal.
type Service interface {
	NotifyBuildStarted(ctx context.Context, trigger string) error
	NotifyBuildCompleted(ctx context.Context, output string, duration time.Duration) error
	NotifyBuildFailed(ctx context.Context, err error, stage string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy. Enabled and
// topic come from the per-build effective configuration, so callers
// construct a fresh service per build. When disabled or unconfigured, a
// noop implementation is returned.
func NewService(cfg *config.Config, enabled bool, topic string) Service {
	topic = strings.TrimSpace(topic)
	server := strings.TrimRight(strings.TrimSpace(cfg.Notifications.NtfyURL), "/")
	if !enabled || topic == "" || server == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: server + "/" + topic,
		token:    strings.TrimSpace(cfg.Notifications.NtfyToken),
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	token    string
	client   *http.Client
}

func (n *ntfyService) NotifyBuildStarted(ctx context.Context, trigger string) error {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = "unknown"
	}
	data := payload{
		title:   "Slidesmith - Build Started",
		message: fmt.Sprintf("Slideshow build started (%s)", trigger),
		tags:    []string{"slidesmith", "build", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBuildCompleted(ctx context.Context, output string, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("Slideshow ready in %s", duration)
	if output = strings.TrimSpace(output); output != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, output)
	}
	data := payload{
		title:    "Slidesmith - Build Complete",
		message:  message,
		tags:     []string{"slidesmith", "build", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBuildFailed(ctx context.Context, err error, stage string) error {
	var builder strings.Builder
	builder.WriteString("Slideshow build failed")
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" during ")
		builder.WriteString(stage)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Slidesmith - Build Failed",
		message:  builder.String(),
		tags:     []string{"slidesmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Slidesmith - Test",
		message:  "Notification system test",
		tags:     []string{"slidesmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBuildStarted(context.Context, string) error                  { return nil }
func (noopService) NotifyBuildCompleted(context.Context, string, time.Duration) error { return nil }
func (noopService) NotifyBuildFailed(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
