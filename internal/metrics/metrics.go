package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskmind_gateway_turns_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"intent", "status"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "taskmind_gateway_turn_duration_seconds",
			Help: "End-to-end turn processing duration in seconds",
		},
	)

	ClassifierOverrides = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskmind_gateway_classifier_overrides_total",
			Help: "Total number of intents overridden by the enhanced classifier",
		},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskmind_gateway_active_conversations",
			Help: "Number of active in-memory conversations",
		},
	)

	TaskAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskmind_gateway_taskapi_requests_total",
			Help: "Total number of Task API requests",
		},
		[]string{"operation", "status"},
	)
)
