package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobActive is returned when a submission arrives while a job is running
	ErrJobActive = errors.New("a download is already in progress")

	// ErrJobNotFound is returned by history lookups for unknown job IDs
	ErrJobNotFound = errors.New("job not found")
)

// ValidationError reports rejected user input. It blocks submission and is
// always returned synchronously to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// EngineError wraps a download, network or transcode failure raised by the engine
type EngineError struct {
	Detail string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "download engine failed"
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// SettingsIOError reports a failure to read or write the settings file.
// It is logged and masked by defaults, never surfaced as a job failure.
type SettingsIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *SettingsIOError) Error() string {
	return fmt.Sprintf("settings %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SettingsIOError) Unwrap() error {
	return e.Err
}

// UnexpectedError is anything uncategorized caught at the worker boundary
type UnexpectedError struct {
	Detail string
}

func (e *UnexpectedError) Error() string {
	return e.Detail
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
