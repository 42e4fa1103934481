// Package metrics provides Prometheus metrics for the voice agent server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes. A fallback reply is a successful dispatch that the
// completion provider answered with no content.
const (
	OutcomeSuccess      = "success"
	OutcomeFallback     = "fallback"
	OutcomeFailed       = "failed"
	OutcomeUnknownAgent = "unknown_agent"
)

var (
	// AgentDispatches counts coordinator dispatches by agent and outcome.
	AgentDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushuari_agent_dispatch_total",
			Help: "Total number of agent dispatches by outcome",
		},
		[]string{"agent_type", "outcome"},
	)

	// AgentDispatchDuration tracks completion latency per agent.
	AgentDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ushuari_agent_dispatch_duration_seconds",
			Help:    "Duration of agent dispatches including the completion call",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"agent_type"},
	)

	// RoomPublishFailures counts replies that could not be broadcast.
	RoomPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ushuari_room_publish_failures_total",
			Help: "Total number of failed room data channel publishes",
		},
	)

	// ConversationAppendFailures counts failed conversation log writes.
	ConversationAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ushuari_conversation_append_failures_total",
			Help: "Total number of failed conversation log appends",
		},
	)

	// ConversationsArchived counts conversations archived for inactivity.
	ConversationsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ushuari_conversations_archived_total",
			Help: "Total number of conversations archived by the janitor",
		},
	)

	// TokensIssued counts room credentials handed out.
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ushuari_tokens_issued_total",
			Help: "Total number of room credentials issued",
		},
	)

	// RoomEvents counts provider webhook notifications by event name.
	RoomEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushuari_room_events_total",
			Help: "Total number of room provider notifications received",
		},
		[]string{"event"},
	)

	// RelayObservers tracks connected websocket observers.
	RelayObservers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ushuari_relay_observers",
			Help: "Number of websocket observers connected to the room relay",
		},
	)
)

// RecordDispatch records one dispatch outcome and its duration.
func RecordDispatch(agentType, outcome string, elapsed time.Duration) {
	AgentDispatches.WithLabelValues(agentType, outcome).Inc()
	if outcome != OutcomeUnknownAgent {
		AgentDispatchDuration.WithLabelValues(agentType).Observe(elapsed.Seconds())
	}
}
