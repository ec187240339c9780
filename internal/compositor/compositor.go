package compositor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"slidesmith/internal/logging"
	"slidesmith/internal/plan"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes the binary and streams combined output lines to onLine.
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
	// Output executes the binary and returns its stdout.
	Output(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// Client renders plans into video files by driving ffmpeg and ffprobe.
type Client struct {
	ffmpeg  string
	ffprobe string
	exec    Executor
	logger  *slog.Logger
}

// New constructs a compositor client.
func New(ffmpegBinary, ffprobeBinary string, logger *slog.Logger, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffmpegBinary == "" || ffprobeBinary == "" {
		return nil, errors.New("ffmpeg and ffprobe binaries required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		exec:    commandExecutor{},
		logger:  logging.WithComponent(logger, "compositor"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ProbeDuration returns a media file's container duration in seconds.
func (c *Client) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := c.exec.Output(ctx, c.ffprobe, ProbeArgs(path))
	if err != nil {
		return 0, fmt.Errorf("probe %q: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("parse probed duration %q: %w", strings.TrimSpace(out), err)
	}
	return seconds, nil
}

// Render executes the plan: slideshow segment, optional normalized
// trailing clip, and the final join, written to outputPath. Intermediate
// files live in workDir and are the caller's to clean up.
func (c *Client) Render(ctx context.Context, p plan.Plan, workDir, outputPath string) error {
	if p.Repeats == 0 && p.Append == nil {
		return errors.New("plan has no slideshow segment and no trailing clip")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	parts := make([]string, 0, 2)

	if p.Repeats > 0 {
		target := outputPath
		if p.Append != nil {
			target = filepath.Join(workDir, "part-slideshow.mp4")
		}
		if err := c.renderSlideshow(ctx, p, workDir, target); err != nil {
			return err
		}
		if p.Append == nil {
			return nil
		}
		parts = append(parts, target)
	}

	if p.Append != nil {
		normalized := filepath.Join(workDir, "part-append.mp4")
		if err := c.normalizeAppend(ctx, p, normalized); err != nil {
			return err
		}
		parts = append(parts, normalized)
	}

	return c.concatParts(ctx, p, workDir, parts, outputPath)
}

func (c *Client) renderSlideshow(ctx context.Context, p plan.Plan, workDir, outPath string) error {
	listPath := filepath.Join(workDir, "slides.ffconcat")
	if err := os.WriteFile(listPath, []byte(SlideListFile(p)), 0o644); err != nil {
		return fmt.Errorf("write slide list: %w", err)
	}

	audioPath := ""
	if p.Audio != nil {
		audioPath = p.Audio.Item.Path
	}

	// Burn the countdown here only when nothing follows the slideshow.
	includeOverlay := p.Append == nil
	args := SlideshowArgs(p, listPath, audioPath, outPath, includeOverlay)
	c.logger.Info("rendering slideshow segment",
		logging.Int("slides", len(p.Slides)),
		logging.Int("repeats", p.Repeats),
		logging.Float64("seconds", p.SlideshowSeconds),
	)
	if err := c.runFFmpeg(ctx, args); err != nil {
		return fmt.Errorf("render slideshow segment: %w", err)
	}
	return nil
}

func (c *Client) normalizeAppend(ctx context.Context, p plan.Plan, outPath string) error {
	c.logger.Info("normalizing trailing clip", logging.String("clip", p.Append.Item.Name))
	if err := c.runFFmpeg(ctx, AppendArgs(p, p.Append.Item.Path, outPath)); err != nil {
		return fmt.Errorf("normalize trailing clip: %w", err)
	}
	return nil
}

func (c *Client) concatParts(ctx context.Context, p plan.Plan, workDir string, parts []string, outputPath string) error {
	listPath := filepath.Join(workDir, "parts.ffconcat")
	if err := os.WriteFile(listPath, []byte(ConcatListFile(parts)), 0o644); err != nil {
		return fmt.Errorf("write parts list: %w", err)
	}
	c.logger.Info("joining parts", logging.Int("parts", len(parts)))
	if err := c.runFFmpeg(ctx, ConcatArgs(p, listPath, outputPath)); err != nil {
		return fmt.Errorf("join parts: %w", err)
	}
	return nil
}

func (c *Client) runFFmpeg(ctx context.Context, args []string) error {
	var tail []string
	err := c.exec.Run(ctx, c.ffmpeg, args, func(line string) {
		// Keep the last few lines for the error message; ffmpeg reports
		// failures at the end of its output.
		tail = append(tail, line)
		if len(tail) > 12 {
			tail = tail[1:]
		}
	})
	if err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("%w\n%s", err, strings.Join(tail, "\n"))
		}
		return err
	}
	return nil
}

type commandExecutor struct{}

// Run executes the command with stderr folded into stdout so ffmpeg's
// progress and error lines arrive on one stream.
func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}
