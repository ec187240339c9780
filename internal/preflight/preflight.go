package preflight

import (
	"context"

	"slidesmith/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckBinary("FFmpeg", cfg.FFmpegBinary()))
	results = append(results, CheckBinary("FFprobe", cfg.FFprobeBinary()))

	if usesNextcloud(cfg) {
		results = append(results, CheckNextcloud(ctx, cfg))
	}
	if cfg.Matrix.Homeserver != "" {
		results = append(results, CheckMatrix(ctx, cfg.Matrix.Homeserver))
	}

	return results
}

// usesNextcloud reports whether any configured source or the upload
// destination points at the Nextcloud server.
func usesNextcloud(cfg *config.Config) bool {
	if cfg.Slideshow.ImageSource == config.SourceNextcloud ||
		cfg.Music.Source == config.SourceNextcloud ||
		cfg.AppendVideo.Source == config.SourceNextcloud {
		return true
	}
	return cfg.Nextcloud.UploadPath != ""
}
