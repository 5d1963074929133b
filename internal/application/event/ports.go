package event

import (
	"context"
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type EventRepo interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// WithTx runs fn inside one transaction. Every write to an existing event goes
	// through it so that edits and lifecycle changes serialize on the row lock.
	WithTx(ctx context.Context, fn func(r TxEventRepo) error) error

	ListPublicTimeKeyset(ctx context.Context, f ListFilter, hasCursor bool, afterStart time.Time, afterID string) ([]*domain.Event, error)
	ListPublicRelevanceKeyset(ctx context.Context, f ListFilter, hasCursor bool, afterRank float64, afterStart time.Time, afterID string) ([]*domain.Event, []float64, error)

	// ownerID "" lists every owner.
	ListManaged(ctx context.Context, ownerID string, sf domain.StatusFilter, page, pageSize int) ([]*domain.Event, int, error)
}

type TxEventRepo interface {
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, e *domain.Event) error
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

// EventPublisher delivers outbox rows to the broker.
// messageID is stable across retries.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
