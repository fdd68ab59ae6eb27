package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"voicemail-relay-go/internal/repository"
)

// GetDeliveries returns recent delivery log entries, newest first
func (h *Handlers) GetDeliveries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_limit", Message: "limit must be a positive integer", Code: http.StatusBadRequest})
			return
		}
		limit = n
	}

	logs, err := h.deliveries.ListDeliveries(c.Request.Context(), c.Query("message_id"), limit)
	if err != nil {
		logrus.Errorf("Failed to list deliveries: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch deliveries", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetDelivery returns a single delivery log entry by ID
func (h *Handlers) GetDelivery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid delivery ID", Code: http.StatusBadRequest})
		return
	}

	entry, err := h.deliveries.GetDelivery(c.Request.Context(), uint(id))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Delivery not found", Code: http.StatusNotFound})
		return
	}
	if err != nil {
		logrus.Errorf("Failed to get delivery %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to fetch delivery", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, entry)
}
