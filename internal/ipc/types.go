package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// BuildSummary mirrors a finished build record over the wire.
type BuildSummary struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	Outcome     string    `json:"outcome"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	Output      string    `json:"output,omitempty"`
	SlideCount  int       `json:"slide_count"`
	Repeats     int       `json:"repeats"`
	Track       string    `json:"track,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// CheckStatus is one preflight result taken at daemon start.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running        bool          `json:"running"`
	Building       bool          `json:"building"`
	Trigger        string        `json:"trigger,omitempty"`
	Stage          string        `json:"stage"`
	StageDetail    string        `json:"stage_detail,omitempty"`
	Last           *BuildSummary `json:"last,omitempty"`
	Checks         []CheckStatus `json:"checks,omitempty"`
	Schedule       string        `json:"schedule"`
	NextRun        time.Time     `json:"next_run"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	Heartbeat      bool          `json:"heartbeat"`
	SettingsDBPath string        `json:"settings_db_path"`
	LockPath       string        `json:"lock_path"`
	PID            int           `json:"pid"`
}

// RebuildRequest triggers an immediate build.
type RebuildRequest struct{}

// RebuildResponse reports whether the build was accepted.
type RebuildResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// ConfigGetRequest fetches one effective setting, or all when Key is empty.
type ConfigGetRequest struct {
	Key string `json:"key"`
}

// ConfigValue is one resolved setting with its winning layer.
type ConfigValue struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
	Group  string `json:"group"`
}

// ConfigGetResponse carries resolved settings in registry order.
type ConfigGetResponse struct {
	Values []ConfigValue `json:"values"`
}

// ConfigSetRequest stores an override.
type ConfigSetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigSetResponse confirms the stored value.
type ConfigSetResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ConfigUnsetRequest removes one override.
type ConfigUnsetRequest struct {
	Key string `json:"key"`
}

// ConfigUnsetResponse reports whether an override existed.
type ConfigUnsetResponse struct {
	Removed bool `json:"removed"`
}

// ConfigResetRequest removes every override.
type ConfigResetRequest struct{}

// ConfigResetResponse reports the number of cleared overrides.
type ConfigResetResponse struct {
	Cleared int64 `json:"cleared"`
}

// ConfigListRequest fetches the stored overrides only.
type ConfigListRequest struct{}

// ConfigListResponse carries the stored overrides.
type ConfigListResponse struct {
	Overrides map[string]string `json:"overrides"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// PlanRequest computes a dry-run assembly plan.
type PlanRequest struct{}

// PlanResponse summarizes the plan a build would execute right now.
type PlanResponse struct {
	SlideCount       int     `json:"slide_count"`
	Repeats          int     `json:"repeats"`
	PerSlideSeconds  float64 `json:"per_slide_seconds"`
	SlideshowSeconds float64 `json:"slideshow_seconds"`
	AppendClip       string  `json:"append_clip,omitempty"`
	AppendSeconds    float64 `json:"append_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds"`
	TrackCount       int     `json:"track_count"`
	SampleTrack      string  `json:"sample_track,omitempty"`
	OverlayEnabled   bool    `json:"overlay_enabled"`
	OverlayStart     float64 `json:"overlay_start,omitempty"`
	OverlayEnd       float64 `json:"overlay_end,omitempty"`
}
