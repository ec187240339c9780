package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSources()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNextcloud()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HeartbeatFile) == "" {
		c.Paths.HeartbeatFile = defaultHeartbeatFile
	}
	if c.Paths.OutputFile != "" {
		if c.Paths.OutputFile, err = expandPath(c.Paths.OutputFile); err != nil {
			return fmt.Errorf("paths.output_file: %w", err)
		}
	}
	if c.Slideshow.ImageFolder != "" {
		if c.Slideshow.ImageFolder, err = expandPath(c.Slideshow.ImageFolder); err != nil {
			return fmt.Errorf("slideshow.image_folder: %w", err)
		}
	}
	if c.Music.Folder != "" && c.Music.Source == SourceLocal {
		if c.Music.Folder, err = expandPath(c.Music.Folder); err != nil {
			return fmt.Errorf("music.folder: %w", err)
		}
	}
	if c.AppendVideo.Path != "" && c.AppendVideo.Source == SourceLocal {
		if c.AppendVideo.Path, err = expandPath(c.AppendVideo.Path); err != nil {
			return fmt.Errorf("append_video.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSources() {
	c.Slideshow.ImageSource = normalizeSource(c.Slideshow.ImageSource)
	c.Music.Source = normalizeSource(c.Music.Source)
	c.AppendVideo.Source = normalizeSource(c.AppendVideo.Source)
	if strings.TrimSpace(c.Music.Folder) == "" {
		c.Music.Folder = c.Slideshow.ImageFolder
	}
}

func (c *Config) normalizeNextcloud() {
	c.Nextcloud.URL = strings.TrimRight(strings.TrimSpace(c.Nextcloud.URL), "/")
	c.Matrix.Homeserver = strings.TrimRight(strings.TrimSpace(c.Matrix.Homeserver), "/")
	c.Notifications.NtfyURL = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyURL), "/")
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeSource(src string) string {
	src = strings.ToLower(strings.TrimSpace(src))
	if src == "" {
		return SourceLocal
	}
	return src
}
