package domain

import "time"

// JobState is the coordinator's state machine
type JobState string

const (
	StateIdle        JobState = "idle"
	StateStarting    JobState = "starting"
	StateDownloading JobState = "downloading"
	StateFinalizing  JobState = "finalizing"
	StateSucceeded   JobState = "succeeded"
	StateFailed      JobState = "failed"
)

// IsTerminal reports whether the state ends a job
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// IsActive reports whether a job is currently running
func (s JobState) IsActive() bool {
	return s == StateStarting || s == StateDownloading || s == StateFinalizing
}

// Rate bounds exposed to consumers of ProgressEvent
const (
	MinRate        = 0.3
	MaxRate        = 15.0
	DefaultRate    = 0.5
	FinalizingRate = 0.2
	IdleRate       = 0.0
)

// ProgressEvent is the canonical, strongly typed progress record published by
// the coordinator. Percent is only meaningful while downloading; ErrorDetail is
// only set on failure.
type ProgressEvent struct {
	JobID       string    `json:"job_id"`
	Phase       JobState  `json:"phase"`
	Percent     float64   `json:"percent"`
	Rate        float64   `json:"rate"`
	Speed       string    `json:"speed,omitempty"`
	Message     string    `json:"message"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// RawProgress is the loosely typed record handed over by the engine. It must not
// travel past the progress normalizer.
type RawProgress struct {
	Status     string
	PercentStr string
	SpeedStr   string
}

// Engine progress statuses
const (
	RawStatusDownloading = "downloading"
	RawStatusFinished    = "finished"
)
