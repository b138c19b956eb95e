package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JobCounter reports how many download jobs are still running.
type JobCounter interface {
	ActiveJobs() int
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	jobs JobCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobs JobCounter) *HealthHandler {
	return &HealthHandler{jobs: jobs}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"active_jobs": h.jobs.ActiveJobs(),
	})
}
