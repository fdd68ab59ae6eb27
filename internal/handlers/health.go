package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Scheduler: "stopped",
		LastCycle: h.scheduler.LastResult(),
	}

	if h.scheduler.IsRunning() {
		response.Scheduler = "running"
		response.NextRun = timePtr(h.scheduler.GetNextRun())
		response.LastRun = timePtr(h.scheduler.GetLastRun())
	}

	if h.deliveries != nil {
		response.Database = "ok"
		if err := h.deliveries.Ping(c.Request.Context()); err != nil {
			response.Status = "error"
			response.Database = "error"
			logrus.Errorf("Database health check failed: %v", err)
		}
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
