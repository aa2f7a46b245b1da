package handlers

import (
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	coord      *app.JobCoordinator
	engineBin  string
	lookupPath func(string) (string, error)
}

// NewHealthHandler creates a new health handler. engineBin is the download
// engine executable that must be resolvable for the server to be ready.
func NewHealthHandler(coord *app.JobCoordinator, engineBin string) *HealthHandler {
	return &HealthHandler{
		coord:      coord,
		engineBin:  engineBin,
		lookupPath: exec.LookPath,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string          `json:"status"`
	Version string          `json:"version"`
	State   domain.JobState `json:"state"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		State:   h.coord.State(),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if _, err := h.lookupPath(h.engineBin); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "download engine not found: " + h.engineBin,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
