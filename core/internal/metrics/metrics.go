package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inbound event metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_events_total",
			Help: "Total number of analytics events processed",
		},
		[]string{"type", "status"},
	)

	TranslationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediabridge_translation_duration_seconds",
			Help:    "Duration of event translation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Sink metrics
	SinkCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_sink_calls_total",
			Help: "Total number of backend calls issued",
		},
		[]string{"method"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_sink_errors_total",
			Help: "Total number of backend calls that failed",
		},
		[]string{"method"},
	)

	// Commerce metrics
	CommerceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_commerce_events_total",
			Help: "Total number of commerce events translated",
		},
		[]string{"action"},
	)

	DroppedProducts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediabridge_dropped_products_total",
			Help: "Total number of products dropped for lacking an identifier",
		},
	)

	// Video metrics
	VideoEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_video_events_total",
			Help: "Total number of video lifecycle events processed",
		},
		[]string{"kind"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediabridge_active_sessions",
			Help: "Number of active playback sessions",
		},
	)

	ProtocolViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediabridge_protocol_violations_total",
			Help: "Total number of video events received without an active session",
		},
	)

	DeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediabridge_dead_lettered_total",
			Help: "Total number of inbound events written to the dead-letter queue",
		},
		[]string{"reason"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediabridge_rate_limit_hits_total",
			Help: "Total number of events rejected by the rate limiter",
		},
	)
)
