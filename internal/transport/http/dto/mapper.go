package dto

import (
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/domain"
)

// ToEventResp projects e at now. Callers building a list must pass the same
// now for every item.
func ToEventResp(e *domain.Event, now time.Time) EventResp {
	resp := EventResp{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Description: e.Description,
		City:        e.City,
		Category:    e.Category,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,

		Tickets:      make([]TicketTierResp, 0, len(e.Tickets)),
		TotalTickets: domain.TotalTickets(e.Tickets),

		Status: string(e.DisplayStatus(now)),
		Ended:  e.IsEnded(now),

		PublishedAt: e.PublishedAt,
		CompletedAt: e.CompletedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, t := range e.Tickets {
		resp.Tickets = append(resp.Tickets, TicketTierResp{Name: t.Name, Price: t.Price, Quantity: t.Quantity})
	}
	if c := e.Cancellation; c != nil {
		resp.Cancellation = &CancellationResp{
			Reason:      c.Reason,
			CancelledBy: string(c.CancelledBy),
			CancelledAt: c.CancelledAt,
		}
	}
	return resp
}

func ToEventResps(items []*domain.Event, now time.Time) []EventResp {
	out := make([]EventResp, 0, len(items))
	for _, e := range items {
		out = append(out, ToEventResp(e, now))
	}
	return out
}

func ToTicketTiers(in []TicketTierReq) []domain.TicketTier {
	out := make([]domain.TicketTier, 0, len(in))
	for _, t := range in {
		out = append(out, domain.TicketTier{Name: t.Name, Price: t.Price, Quantity: t.Quantity})
	}
	return out
}
