package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the persisted outcome of a job in history
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job is the history record of one submitted download
type Job struct {
	ID               string       `json:"id" gorm:"primaryKey"`
	URL              string       `json:"url" gorm:"not null"`
	OutputDir        string       `json:"output_dir" gorm:"not null"`
	Mode             Mode         `json:"mode" gorm:"not null"`
	Quality          string       `json:"quality"`
	SubtitleLangs    string       `json:"subtitle_langs,omitempty"` // comma separated
	AudioBitrateKbps AudioBitrate `json:"audio_bitrate_kbps"`
	Status           JobStatus    `json:"status" gorm:"not null;index"`
	Phase            JobState     `json:"phase"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	FilePath         string       `json:"file_path,omitempty"`
	MediaType        string       `json:"media_type,omitempty"`
	CreatedAt        time.Time    `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// NewJob creates a running job for a validated request
func NewJob(req DownloadRequest) *Job {
	now := time.Now()
	return &Job{
		ID:               uuid.New().String(),
		URL:              req.URL,
		OutputDir:        req.OutputDir,
		Mode:             req.Mode,
		Quality:          req.QualityLabel(),
		SubtitleLangs:    strings.Join(req.SubtitleLangs, ","),
		AudioBitrateKbps: req.AudioBitrateKbps,
		Status:           JobStatusRunning,
		Phase:            StateStarting,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// MarkDownloading records the first progress callback
func (j *Job) MarkDownloading() {
	now := time.Now()
	j.Phase = StateDownloading
	if j.StartedAt == nil {
		j.StartedAt = &now
	}
	j.UpdatedAt = now
}

// MarkFinalizing records the engine's finished signal
func (j *Job) MarkFinalizing() {
	j.Phase = StateFinalizing
	j.UpdatedAt = time.Now()
}

// MarkSucceeded marks the job as succeeded
func (j *Job) MarkSucceeded(filePath, mediaType string) {
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.Phase = StateSucceeded
	j.FilePath = filePath
	j.MediaType = mediaType
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed marks the job as failed
func (j *Job) MarkFailed(err error) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.Phase = StateFailed
	j.ErrorMessage = err.Error()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// IsTerminal checks if the job has finished
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// Duration returns how long the job ran, or zero while it is running
func (j *Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.CreatedAt)
}

// Subtitles returns the subtitle languages as a slice
func (j *Job) Subtitles() []string {
	if j.SubtitleLangs == "" {
		return nil
	}
	return strings.Split(j.SubtitleLangs, ",")
}
