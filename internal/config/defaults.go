package config

const (
	defaultDataDir           = "~/.local/share/slidesmith"
	defaultLogDir            = "~/.local/share/slidesmith/logs"
	defaultHeartbeatFile     = "/tmp/slidesmith-heartbeat"
	defaultSlideSeconds      = 10
	defaultTargetSeconds     = 600
	defaultImageSource       = "local"
	defaultImageFolder       = "images"
	defaultWidth             = 1920
	defaultHeight            = 1080
	defaultFPS               = 5
	defaultMusicSource       = "local"
	defaultAppendSource      = "local"
	defaultCronSchedule      = "0 1 * * 5"
	defaultHeartbeatInterval = 60
	defaultTimerMinutes      = 5
	defaultTimerPosition     = "top-middle"
	defaultRequestTimeout    = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			HeartbeatFile: defaultHeartbeatFile,
		},
		Slideshow: Slideshow{
			SlideSeconds:  defaultSlideSeconds,
			TargetSeconds: defaultTargetSeconds,
			ImageSource:   defaultImageSource,
			ImageFolder:   defaultImageFolder,
			Width:         defaultWidth,
			Height:        defaultHeight,
			FPS:           defaultFPS,
		},
		Music: Music{
			Source: defaultMusicSource,
		},
		AppendVideo: AppendVideo{
			Source: defaultAppendSource,
		},
		Notifications: Notifications{
			Enabled:        true,
			RequestTimeout: defaultRequestTimeout,
		},
		Timer: Timer{
			Minutes:  defaultTimerMinutes,
			Position: defaultTimerPosition,
		},
		Workflow: Workflow{
			CronSchedule:      defaultCronSchedule,
			EnableHeartbeat:   true,
			HeartbeatInterval: defaultHeartbeatInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
