package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

const namespace = "event_service"

var (
	lifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Event lifecycle transitions by outcome",
		},
		[]string{"transition", "result"}, // result: ok, validation_error, invalid_state, ...
	)

	outboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_total",
			Help:      "Outbox delivery attempts by outcome",
		},
		[]string{"routing_key", "result"}, // sent, retry, dead
	)

	listRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_requests_total",
			Help:      "List requests by scope and requested display status",
		},
		[]string{"scope", "status"},
	)
)

func ObserveTransition(name string, err error) {
	result := "ok"
	if err != nil {
		result = string(domain.CodeOf(err))
		if result == "" {
			result = "error"
		}
	}
	lifecycleTransitions.WithLabelValues(name, result).Inc()
}

func ObserveOutbox(routingKey, result string) {
	outboxPublished.WithLabelValues(routingKey, result).Inc()
}

// ObserveList records which display statuses clients filter on. status "" is recorded as "any".
func ObserveList(scope string, status domain.DisplayStatus) {
	s := string(status)
	if s == "" {
		s = "any"
	}
	listRequests.WithLabelValues(scope, s).Inc()
}
