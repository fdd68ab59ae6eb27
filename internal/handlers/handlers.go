package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicemail-relay-go/internal/model"
	"voicemail-relay-go/internal/scheduler"
)

// SchedulerControl is the scheduler surface exposed over HTTP
type SchedulerControl interface {
	Start() error
	Stop() error
	IsRunning() bool
	Trigger() error
	GetNextRun() time.Time
	GetLastRun() time.Time
	LastResult() *scheduler.CycleResult
	DateFrom() string
}

// DeliveryStore reads the delivery audit trail
type DeliveryStore interface {
	ListDeliveries(ctx context.Context, messageID string, limit int) ([]model.DeliveryLog, error)
	GetDelivery(ctx context.Context, id uint) (*model.DeliveryLog, error)
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	scheduler  SchedulerControl
	deliveries DeliveryStore
	gatherer   prometheus.Gatherer
}

// NewHandlers creates new HTTP handlers. deliveries may be nil when the
// audit trail is disabled.
func NewHandlers(s SchedulerControl, deliveries DeliveryStore, gatherer prometheus.Gatherer) *Handlers {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{scheduler: s, deliveries: deliveries, gatherer: gatherer}
}

// SetupRoutes registers all routes on r
func (h *Handlers) SetupRoutes(r *gin.Engine) {
	r.GET("/healthz", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		sched := api.Group("/scheduler")
		sched.GET("/status", h.GetSchedulerStatus)
		sched.POST("/start", h.StartScheduler)
		sched.POST("/stop", h.StopScheduler)
		sched.POST("/run-once", h.RunOnce)

		if h.deliveries != nil {
			api.GET("/deliveries", h.GetDeliveries)
			api.GET("/deliveries/:id", h.GetDelivery)
		}
	}
}
