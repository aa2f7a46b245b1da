package domain

import "context"

// ProgressHook receives raw engine progress. It is called from the engine's
// goroutine and must not block for long.
type ProgressHook func(RawProgress)

// EngineResult describes the file produced by a successful download
type EngineResult struct {
	FilePath  string
	MediaType string
}

// Engine fetches and transcodes media for fully lowered options.
// It returns an *EngineError on failure.
type Engine interface {
	Download(ctx context.Context, opts EngineOptions, hook ProgressHook) (EngineResult, error)
}

// FolderRevealer opens a directory in the platform's file manager
type FolderRevealer interface {
	Reveal(dir string) error
}

// Notifier announces finished jobs to the user
type Notifier interface {
	NotifyJobSucceeded(job *Job) error
	NotifyJobFailed(job *Job) error
}

// SettingsPersistence reads and writes the raw settings document
type SettingsPersistence interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Path() string
}
