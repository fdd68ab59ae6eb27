package handlers

import (
	"time"

	"voicemail-relay-go/internal/scheduler"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Scheduler string                 `json:"scheduler"`
	Database  string                 `json:"database,omitempty"`
	NextRun   *time.Time             `json:"next_run,omitempty"`
	LastRun   *time.Time             `json:"last_run,omitempty"`
	LastCycle *scheduler.CycleResult `json:"last_cycle,omitempty"`
}

// SchedulerStatusResponse represents the scheduler status
type SchedulerStatusResponse struct {
	Status    string                 `json:"status"`
	DateFrom  string                 `json:"date_from"`
	NextRun   *time.Time             `json:"next_run,omitempty"`
	LastRun   *time.Time             `json:"last_run,omitempty"`
	LastCycle *scheduler.CycleResult `json:"last_cycle,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
