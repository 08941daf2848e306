package domain

import "time"

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStatePending    JobState = "pending"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether the state permits no further mutation.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// VideoQuality enumerates render quality tiers.
type VideoQuality string

const (
	VideoQualityLow    VideoQuality = "low"
	VideoQualityMedium VideoQuality = "medium"
	VideoQualityHigh   VideoQuality = "high"
)

// AspectRatio enumerates the ratios accepted at the API surface. The
// synthesis provider only supports portrait and landscape; square input is
// normalized at the engine boundary.
type AspectRatio string

const (
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
)

// Valid reports whether the ratio is one the API accepts.
func (r AspectRatio) Valid() bool {
	switch r {
	case AspectPortrait, AspectLandscape, AspectSquare:
		return true
	}
	return false
}

// VideoConfig is the render configuration snapshotted onto a job at
// submission time.
type VideoConfig struct {
	DurationSeconds int
	AspectRatio     AspectRatio
	Quality         VideoQuality
}

// Job encapsulates the lifecycle of a single video generation request.
// Cost is fixed at creation, progress never decreases, and once the state
// is terminal the record is immutable.
type Job struct {
	ID            string
	OwnerID       string
	State         JobState
	Progress      int
	Cost          int
	Config        VideoConfig
	MotionID      string
	InputImageKey string
	ReferenceKey  string
	EngineHandle  string
	ResultURI     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasReference reports whether a secondary motion/character-transfer asset
// was supplied.
func (j Job) HasReference() bool {
	return j.ReferenceKey != ""
}

// GenerationRequest is the transient submission input. It is consumed once
// by the orchestrator and never persisted as-is.
type GenerationRequest struct {
	MotionID      string
	InputImageKey string
	ReferenceKey  string
	Config        VideoConfig
}
