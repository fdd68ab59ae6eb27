package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicemail-relay-go/internal/scheduler"
)

// StartScheduler starts the polling scheduler
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "scheduler_error", Message: err.Error(), Code: http.StatusConflict})
		return
	}
	c.Status(http.StatusOK)
}

// StopScheduler stops the polling scheduler
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "scheduler_error", Message: err.Error(), Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusOK)
}

// RunOnce triggers a polling cycle in the background
func (h *Handlers) RunOnce(c *gin.Context) {
	if err := h.scheduler.Trigger(); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, scheduler.ErrCycleInProgress) {
			code = http.StatusConflict
		}
		c.JSON(code, ErrorResponse{Error: "cycle_in_progress", Message: err.Error(), Code: code})
		return
	}
	c.Status(http.StatusAccepted)
}

// GetSchedulerStatus returns scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	response := SchedulerStatusResponse{
		Status:    "stopped",
		DateFrom:  h.scheduler.DateFrom(),
		LastCycle: h.scheduler.LastResult(),
	}
	if h.scheduler.IsRunning() {
		response.Status = "running"
		response.NextRun = timePtr(h.scheduler.GetNextRun())
		response.LastRun = timePtr(h.scheduler.GetLastRun())
	}
	c.JSON(http.StatusOK, response)
}
