package event

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

// publiclyVisible: drafts, cancelled and suspended events are hidden from anonymous readers.
func publiclyVisible(e *domain.Event) bool {
	return e.Status == domain.StatusPublished || e.Status == domain.StatusCompleted
}

func (s *Service) GetPublic(ctx context.Context, id string) (*domain.Event, error) {
	key := cacheKeyEventDetails(id)

	if s.cache != nil {
		var cached domain.Event
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			zlog.Debug().Str("key", key).Msg("cache hit")
			return &cached, nil
		}
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !publiclyVisible(e) {
		return nil, domain.ErrNotFound("event not found")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, e, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return e, nil
}

// GetForOwner is the uncached management view.
func (s *Service) GetForOwner(ctx context.Context, id, actorID, actorRole string) (*domain.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actorID, actorRole, e.OwnerID) {
		return nil, domain.ErrForbidden("not allowed")
	}
	return e, nil
}
