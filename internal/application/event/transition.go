package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
	"github.com/baechuer/ticketing/services/event-service/internal/metrics"
)

// TransitionCmd drives a lifecycle change. Now is the request's instant; the
// zero value falls back to the service clock.
type TransitionCmd struct {
	EventID   string
	ActorID   string
	ActorRole string
	Reason    string // cancel and suspend
	Now       time.Time
}

type transition struct {
	name       string // metrics label
	routingKey string
	authorize  func(ev *domain.Event) error
	apply      func(ev *domain.Event, now time.Time) error
}

// run loads the event under a row lock, applies the transition and writes the
// outbox row in the same transaction (durable, at-least-once).
func (s *Service) run(ctx context.Context, cmd TransitionCmd, t transition) (*domain.Event, error) {
	now := s.at(cmd.Now)
	actorID, actorRole := cmd.ActorID, cmd.ActorRole

	var out *domain.Event
	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if err := t.authorize(ev); err != nil {
			return err
		}

		if err := t.apply(ev, now); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}

		messageID := uuid.NewString()
		payload := LifecyclePayload{
			EventID:   ev.ID,
			OwnerID:   ev.OwnerID,
			Title:     ev.Title,
			City:      ev.City,
			Category:  ev.Category,
			StartTime: ev.StartTime,
			EndTime:   ev.EndTime,
			Status:    string(ev.Status),
			ActorID:   actorID,
			ActorRole: actorRole,
		}
		if c := ev.Cancellation; c != nil {
			payload.Reason = c.Reason
			payload.CancelledBy = string(c.CancelledBy)
		}
		body, err := json.Marshal(DomainEventEnvelope[LifecyclePayload]{
			Version:    EventVersion,
			Producer:   EventProducer,
			MessageID:  messageID,
			TraceID:    TraceIDFromContext(ctx),
			OccurredAt: now,
			Payload:    payload,
		})
		if err != nil {
			return err
		}

		if err := r.InsertOutbox(ctx, OutboxMessage{
			MessageID:  messageID,
			RoutingKey: t.routingKey,
			Body:       body,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		out = ev
		return nil
	})
	if err != nil {
		metrics.ObserveTransition(t.name, err)
		return nil, err
	}
	metrics.ObserveTransition(t.name, nil)

	zlog.Info().
		Str("event_id", out.ID).
		Str("transition", t.name).
		Str("status", string(out.Status)).
		Str("actor_id", actorID).
		Msg("event lifecycle transition")

	s.invalidate(ctx, out.ID)
	return out, nil
}

// invalidate drops the cached detail view and moves the public list cache to a
// new generation. Best-effort, after commit.
func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	key := cacheKeyEventDetails(id)
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
	if err := s.cache.Set(ctx, cacheKeyListGeneration, uuid.NewString(), 0); err != nil {
		zlog.Warn().Err(err).Str("key", cacheKeyListGeneration).Msg("list generation bump failed")
	}
}

func ownerOrAdmin(actorID, actorRole string) func(ev *domain.Event) error {
	return func(ev *domain.Event) error {
		if !canManage(actorID, actorRole, ev.OwnerID) {
			return domain.ErrForbidden("not allowed")
		}
		return nil
	}
}

func adminOnly(actorRole string) func(ev *domain.Event) error {
	return func(*domain.Event) error {
		if !isAdmin(actorRole) {
			return domain.ErrForbidden("admin only")
		}
		return nil
	}
}

func (s *Service) Publish(ctx context.Context, cmd TransitionCmd) (*domain.Event, error) {
	return s.run(ctx, cmd, transition{
		name:       "publish",
		routingKey: RKPublished,
		authorize:  ownerOrAdmin(cmd.ActorID, cmd.ActorRole),
		apply: func(ev *domain.Event, now time.Time) error {
			return ev.Publish(now)
		},
	})
}

// Cancel is the host-side take-down.
func (s *Service) Cancel(ctx context.Context, cmd TransitionCmd) (*domain.Event, error) {
	return s.run(ctx, cmd, transition{
		name:       "cancel",
		routingKey: RKCancelled,
		authorize:  ownerOrAdmin(cmd.ActorID, cmd.ActorRole),
		apply: func(ev *domain.Event, now time.Time) error {
			return ev.Cancel(cmd.Reason, now)
		},
	})
}

// Suspend is the admin-side take-down.
func (s *Service) Suspend(ctx context.Context, cmd TransitionCmd) (*domain.Event, error) {
	return s.run(ctx, cmd, transition{
		name:       "suspend",
		routingKey: RKSuspended,
		authorize:  adminOnly(cmd.ActorRole),
		apply: func(ev *domain.Event, now time.Time) error {
			return ev.Suspend(cmd.Reason, now)
		},
	})
}

// Complete marks a finished event as wrapped up (admin, after end_time).
func (s *Service) Complete(ctx context.Context, cmd TransitionCmd) (*domain.Event, error) {
	return s.run(ctx, cmd, transition{
		name:       "complete",
		routingKey: RKCompleted,
		authorize:  adminOnly(cmd.ActorRole),
		apply: func(ev *domain.Event, now time.Time) error {
			return ev.Complete(now)
		},
	})
}
