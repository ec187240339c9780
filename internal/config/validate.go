package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Media source selectors shared across slideshow, music, and append video.
const (
	SourceLocal     = "local"
	SourceNextcloud = "nextcloud"
)

// Timer overlay anchor positions.
const (
	PositionTopMiddle   = "top-middle"
	PositionBottomRight = "bottom-right"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSlideshow(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateNextcloud(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateTimer(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSlideshow() error {
	if c.Slideshow.SlideSeconds <= 0 {
		return errors.New("slideshow.slide_seconds must be positive")
	}
	if c.Slideshow.TargetSeconds <= 0 {
		return errors.New("slideshow.target_seconds must be positive")
	}
	if c.Slideshow.Width <= 0 || c.Slideshow.Height <= 0 {
		return errors.New("slideshow.width and slideshow.height must be positive")
	}
	if c.Slideshow.FPS <= 0 {
		return errors.New("slideshow.fps must be positive")
	}
	return nil
}

func (c *Config) validateSources() error {
	for name, value := range map[string]string{
		"slideshow.image_source": c.Slideshow.ImageSource,
		"music.source":           c.Music.Source,
		"append_video.source":    c.AppendVideo.Source,
	} {
		if value != SourceLocal && value != SourceNextcloud {
			return fmt.Errorf("%s must be %q or %q, got %q", name, SourceLocal, SourceNextcloud, value)
		}
	}
	return nil
}

func (c *Config) validateNextcloud() error {
	usesNextcloud := c.Slideshow.ImageSource == SourceNextcloud ||
		c.Music.Source == SourceNextcloud ||
		c.AppendVideo.Source == SourceNextcloud ||
		strings.TrimSpace(c.Nextcloud.UploadPath) != ""
	if !usesNextcloud {
		return nil
	}
	if strings.TrimSpace(c.Nextcloud.URL) == "" {
		return errors.New("nextcloud.url must be set when a nextcloud source or upload path is configured")
	}
	if strings.TrimSpace(c.Nextcloud.Username) == "" {
		return errors.New("nextcloud.username must be set when a nextcloud source or upload path is configured")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if _, err := cronParser.Parse(strings.TrimSpace(c.Workflow.CronSchedule)); err != nil {
		return fmt.Errorf("workflow.cron_schedule: %w", err)
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	return nil
}

func (c *Config) validateTimer() error {
	if !c.Timer.Enabled {
		return nil
	}
	if c.Timer.Minutes <= 0 {
		return errors.New("timer.minutes must be positive when timer.enabled is true")
	}
	if c.Timer.Position != PositionTopMiddle && c.Timer.Position != PositionBottomRight {
		return fmt.Errorf("timer.position must be %q or %q", PositionTopMiddle, PositionBottomRight)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
