package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	OutputFile    string `toml:"output_file"`
	HeartbeatFile string `toml:"heartbeat_file"`
}

// Slideshow contains the static defaults for timeline assembly. All of these
// can be overridden at runtime through the settings store.
type Slideshow struct {
	SlideSeconds  int    `toml:"slide_seconds"`
	TargetSeconds int    `toml:"target_seconds"`
	ImageSource   string `toml:"image_source"`
	ImageFolder   string `toml:"image_folder"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	FPS           int    `toml:"fps"`
}

// Music contains background music sourcing configuration.
type Music struct {
	Source string `toml:"source"`
	Folder string `toml:"folder"`
}

// AppendVideo contains configuration for the optional trailing clip.
type AppendVideo struct {
	Source string `toml:"source"`
	Path   string `toml:"path"`
}

// Nextcloud contains WebDAV connection settings.
type Nextcloud struct {
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	ImagePath   string `toml:"image_path"`
	UploadPath  string `toml:"upload_path"`
	InsecureTLS bool   `toml:"insecure_tls"`
}

// Matrix contains chat bot connection settings. AllowedSenders is the fixed
// allow-list checked by the command dispatcher; when empty, every member of
// the control room may issue commands and room membership is the boundary.
type Matrix struct {
	Homeserver     string   `toml:"homeserver"`
	AccessToken    string   `toml:"access_token"`
	RoomID         string   `toml:"room_id"`
	UserID         string   `toml:"user_id"`
	AllowedSenders []string `toml:"allowed_senders"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	Enabled        bool   `toml:"enabled"`
	NtfyURL        string `toml:"ntfy_url"`
	NtfyTopic      string `toml:"ntfy_topic"`
	NtfyToken      string `toml:"ntfy_token"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Timer contains countdown overlay settings.
type Timer struct {
	Enabled  bool   `toml:"enabled"`
	Minutes  int    `toml:"minutes"`
	Position string `toml:"position"`
}

// Workflow contains scheduling and liveness configuration.
type Workflow struct {
	CronSchedule      string `toml:"cron_schedule"`
	EnableHeartbeat   bool   `toml:"enable_heartbeat"`
	HeartbeatInterval int    `toml:"heartbeat_interval"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all static configuration for slidesmith.
//
// Static here means "bound at process start": the values that the settings
// resolver treats as the default layer, plus the connection details for the
// external collaborators. Runtime-tunable settings flow through
// internal/settings and shadow the corresponding fields per build.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Slideshow     Slideshow     `toml:"slideshow"`
	Music         Music         `toml:"music"`
	AppendVideo   AppendVideo   `toml:"append_video"`
	Nextcloud     Nextcloud     `toml:"nextcloud"`
	Matrix        Matrix        `toml:"matrix"`
	Notifications Notifications `toml:"notifications"`
	Timer         Timer         `toml:"timer"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slidesmith/config.toml")
}

// Load locates, parses, and validates a configuration file, then overlays
// recognized environment variables. The returned config has all path fields
// expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvironment()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slidesmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for rendering.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
