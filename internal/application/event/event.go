package event

import (
	"context"
	"strings"
	"time"

	appCtx "github.com/baechuer/ticketing/services/event-service/internal/pkg/context"
)

const (
	EventVersion  = 1
	EventProducer = "event-service"
)

// Routing keys on the topic exchange.
const (
	RKPublished = "event.published"
	RKCancelled = "event.cancelled"
	RKSuspended = "event.suspended"
	RKCompleted = "event.completed"
)

// DomainEventEnvelope is the stable contract for all domain events emitted by event-service.
// Consumers should rely on: version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// LifecyclePayload is shared by every lifecycle routing key.
type LifecyclePayload struct {
	EventID     string    `json:"event_id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	City        string    `json:"city"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	CancelledBy string    `json:"cancelled_by,omitempty"`
	ActorID     string    `json:"actor_id"`
	ActorRole   string    `json:"actor_role,omitempty"`
}

// TraceIDFromContext reads the request id set by the HTTP middleware, if any.
func TraceIDFromContext(ctx context.Context) string {
	return strings.TrimSpace(appCtx.GetRequestID(ctx))
}
