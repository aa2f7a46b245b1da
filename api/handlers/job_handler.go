package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// JobHandler handles job submission, coordinator state and job history
type JobHandler struct {
	coord  *app.JobCoordinator
	repo   domain.JobRepository
	logger *zap.Logger
}

// NewJobHandler creates a new job handler. repo may be nil, in which case the
// history endpoints answer 503.
func NewJobHandler(coord *app.JobCoordinator, repo domain.JobRepository, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		coord:  coord,
		repo:   repo,
		logger: logger,
	}
}

// SubmitJob handles POST /api/v1/jobs
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var in app.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.coord.Submit(in)
	if err != nil {
		switch {
		case domain.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrJobActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to submit job", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetState handles GET /api/v1/state
func (h *JobHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.coord.Status())
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	var (
		jobs []*domain.Job
		err  error
	)
	if status := c.Query("status"); status != "" {
		jobs, err = h.repo.FindByStatus(domain.JobStatus(status))
	} else {
		jobs, err = h.repo.FindRecent(parseLimit(c.Query("limit")))
	}
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	job, err := h.repo.FindByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("Failed to get job", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetStats handles GET /api/v1/jobs/stats
func (h *JobHandler) GetStats(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	stats, err := h.repo.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *JobHandler) historyAvailable(c *gin.Context) bool {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job history is disabled"})
		return false
	}
	return true
}

// parseLimit reads a positive limit, capped at maxHistoryLimit
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
