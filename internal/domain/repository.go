package domain

// JobRepository defines the interface for job history persistence
type JobRepository interface {
	// Create creates a new job
	Create(job *Job) error

	// Update updates an existing job
	Update(job *Job) error

	// FindByID finds a job by ID
	FindByID(id string) (*Job, error)

	// FindRecent returns the newest jobs first, at most limit of them
	FindRecent(limit int) ([]*Job, error)

	// FindByStatus finds jobs by status
	FindByStatus(status JobStatus) ([]*Job, error)

	// GetStats returns job statistics
	GetStats() (*JobStats, error)
}

// JobStats represents job history statistics
type JobStats struct {
	Total     int64 `json:"total"`
	Running   int64 `json:"running"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
