package main

import (
	"path/filepath"

	"slidesmith/internal/config"
)

func socketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join("", "slidesmithd.sock")
	}
	return filepath.Join(cfg.Paths.DataDir, "slidesmithd.sock")
}
