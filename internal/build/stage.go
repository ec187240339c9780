package build

// Stage identifies where in the pipeline a running build is.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageFetching   Stage = "fetching"
	StageAssembling Stage = "assembling"
	StageEncoding   Stage = "encoding"
	StageUploading  Stage = "uploading"
	StageNotifying  Stage = "notifying"
)

// Trigger records what started a build.
type Trigger string

const (
	TriggerCron Trigger = "cron"
	TriggerChat Trigger = "chat"
	TriggerCLI  Trigger = "cli"
)

// Outcome is the terminal state of a finished build.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)
