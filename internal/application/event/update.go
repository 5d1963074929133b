package event

import (
	"context"
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

type UpdateCmd struct {
	ActorID   string
	ActorRole string
	EventID   string

	Title       *string
	Description *string
	City        *string
	Category    *string
	StartTime   *time.Time
	EndTime     *time.Time
	Tickets     *[]domain.TicketTier

	Now time.Time
}

// Update edits event details under the row lock, so a take-down committed
// concurrently is either seen here or applied on top of this edit.
func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.Event, error) {
	now := s.at(cmd.Now)

	var out *domain.Event
	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, cmd.EventID)
		if err != nil {
			return err
		}
		if !canManage(cmd.ActorID, cmd.ActorRole, ev.OwnerID) {
			return domain.ErrForbidden("not allowed")
		}

		err = ev.ApplyUpdate(domain.Patch{
			Title:       cmd.Title,
			Description: cmd.Description,
			City:        cmd.City,
			Category:    cmd.Category,
			StartTime:   cmd.StartTime,
			EndTime:     cmd.EndTime,
			Tickets:     cmd.Tickets,
		}, now)
		if err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		out = ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, out.ID)
	return out, nil
}
