package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventResp is the stable API response model.
// status is the display status projected at the request's now; ended is derived too.
type EventResp struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	City        string `json:"city"`
	Category    string `json:"category"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Tickets      []TicketTierResp `json:"tickets"`
	TotalTickets int              `json:"total_tickets"`

	Status string `json:"status"`
	Ended  bool   `json:"ended"`

	Cancellation *CancellationResp `json:"cancellation,omitempty"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TicketTierResp struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type CancellationResp struct {
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type PageResp[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

type CursorResp[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
