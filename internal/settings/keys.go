package settings

// Key identifies one runtime-tunable setting. The surface is a fixed
// enumerated set; unknown keys are rejected, never stored.
type Key string

const (
	KeyImageDuration       Key = "IMAGE_DURATION"
	KeyTargetDuration      Key = "TARGET_VIDEO_DURATION"
	KeyCronSchedule        Key = "CRON_SCHEDULE"
	KeyImageSource         Key = "IMAGE_SOURCE"
	KeyNextcloudImagePath  Key = "NEXTCLOUD_IMAGE_PATH"
	KeyNextcloudUploadPath Key = "NEXTCLOUD_UPLOAD_PATH"
	KeyMusicSource         Key = "MUSIC_SOURCE"
	KeyMusicFolder         Key = "MUSIC_FOLDER"
	KeyAppendVideoSource   Key = "APPEND_VIDEO_SOURCE"
	KeyAppendVideoPath     Key = "APPEND_VIDEO_PATH"
	KeyEnableTimer         Key = "ENABLE_TIMER"
	KeyTimerMinutes        Key = "TIMER_MINUTES"
	KeyTimerPosition       Key = "TIMER_POSITION"
	KeyEnableHeartbeat     Key = "ENABLE_HEARTBEAT"
	KeyEnableNtfy          Key = "ENABLE_NTFY"
	KeyNtfyTopic           Key = "NTFY_TOPIC"
)

// Kind is the declared value type of a setting key.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindEnum
	KindPath
	KindString
	KindCron
)

// Definition describes one member of the configuration surface.
type Definition struct {
	Key         Key
	Kind        Kind
	Enum        []string
	Group       string
	Description string
}

// Setting groups used by help and full-config rendering.
const (
	GroupGeneral   = "General"
	GroupNextcloud = "Nextcloud"
	GroupTimer     = "Timer"
	GroupHeartbeat = "Heartbeat"
	GroupNtfy      = "Ntfy"
)

var sourceEnum = []string{"local", "nextcloud"}

// Registry lists every recognized setting in display order.
var Registry = []Definition{
	{Key: KeyImageDuration, Kind: KindInt, Group: GroupGeneral, Description: "Seconds each slide is displayed"},
	{Key: KeyTargetDuration, Kind: KindInt, Group: GroupGeneral, Description: "Total video length in seconds"},
	{Key: KeyCronSchedule, Kind: KindCron, Group: GroupGeneral, Description: "Build schedule (minute hour day month weekday)"},
	{Key: KeyNextcloudUploadPath, Kind: KindPath, Group: GroupNextcloud, Description: "Remote path the finished video is uploaded to"},
	{Key: KeyImageSource, Kind: KindEnum, Enum: sourceEnum, Group: GroupNextcloud, Description: "Where slide images come from"},
	{Key: KeyNextcloudImagePath, Kind: KindPath, Group: GroupNextcloud, Description: "Remote folder holding slide images"},
	{Key: KeyMusicSource, Kind: KindEnum, Enum: sourceEnum, Group: GroupNextcloud, Description: "Where background music comes from"},
	{Key: KeyMusicFolder, Kind: KindPath, Group: GroupNextcloud, Description: "Folder holding music tracks and .md attributions"},
	{Key: KeyAppendVideoSource, Kind: KindEnum, Enum: sourceEnum, Group: GroupNextcloud, Description: "Where the appended clip comes from"},
	{Key: KeyAppendVideoPath, Kind: KindPath, Group: GroupNextcloud, Description: "Path of the clip appended after the slideshow"},
	{Key: KeyEnableTimer, Kind: KindBool, Group: GroupTimer, Description: "Overlay a countdown near the end"},
	{Key: KeyTimerMinutes, Kind: KindInt, Group: GroupTimer, Description: "Countdown length in minutes"},
	{Key: KeyTimerPosition, Kind: KindEnum, Enum: []string{"top-middle", "bottom-right"}, Group: GroupTimer, Description: "Countdown anchor position"},
	{Key: KeyEnableHeartbeat, Kind: KindBool, Group: GroupHeartbeat, Description: "Refresh the liveness file"},
	{Key: KeyEnableNtfy, Kind: KindBool, Group: GroupNtfy, Description: "Send push notifications"},
	{Key: KeyNtfyTopic, Kind: KindString, Group: GroupNtfy, Description: "ntfy topic for push notifications"},
}

var registryByKey = func() map[Key]Definition {
	m := make(map[Key]Definition, len(Registry))
	for _, def := range Registry {
		m[def.Key] = def
	}
	return m
}()

// Lookup returns the definition for a key, if it is recognized.
func Lookup(key Key) (Definition, bool) {
	def, ok := registryByKey[key]
	return def, ok
}

// Groups returns the distinct group names in display order.
func Groups() []string {
	seen := make(map[string]struct{}, 5)
	order := make([]string, 0, 5)
	for _, def := range Registry {
		if _, ok := seen[def.Group]; !ok {
			seen[def.Group] = struct{}{}
			order = append(order, def.Group)
		}
	}
	return order
}
