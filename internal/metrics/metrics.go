package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Cycles                prometheus.Counter
	CycleFailures         *prometheus.CounterVec
	CycleDuration         prometheus.Histogram
	PagesFetched          prometheus.Counter
	UnreadSeen            prometheus.Gauge
	Notified              prometheus.Counter
	MarkedRead            prometheus.Counter
	TranscriptionsMissing prometheus.Counter
}

// NewMetrics registers the relay metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicemail_relay_cycles_total",
			Help: "Total number of polling cycles started",
		}),
		CycleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicemail_relay_cycle_failures_total",
			Help: "Total number of polling cycles aborted by an error, by error kind",
		}, []string{"kind"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voicemail_relay_cycle_duration_seconds",
			Help:    "Time spent in a polling cycle",
			Buckets: prometheus.DefBuckets,
		}),
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicemail_relay_pages_fetched_total",
			Help: "Total number of message store listing pages fetched",
		}),
		UnreadSeen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voicemail_relay_unread_voicemails",
			Help: "Unread voicemails collected by the most recent cycle",
		}),
		Notified: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicemail_relay_notifications_total",
			Help: "Total number of notifications delivered",
		}),
		MarkedRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicemail_relay_marked_read_total",
			Help: "Total number of voicemails marked as read",
		}),
		TranscriptionsMissing: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicemail_relay_transcriptions_missing_total",
			Help: "Total number of notifications sent without a transcription",
		}),
	}
}
