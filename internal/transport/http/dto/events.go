package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketTierReq struct {
	Name     string          `json:"name" validate:"required,max=60"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gt=0"`
}

type CreateEventReq struct {
	Title       string          `json:"title" validate:"required,max=120"`
	Description string          `json:"description" validate:"required,max=4000"`
	City        string          `json:"city" validate:"required,max=80"`
	Category    string          `json:"category" validate:"required,max=80"`
	StartTime   time.Time       `json:"start_time" validate:"required"`
	EndTime     time.Time       `json:"end_time" validate:"required,gtfield=StartTime"`
	Tickets     []TicketTierReq `json:"tickets" validate:"max=10,dive"`
}

// UpdateEventReq is a partial update; absent fields are left alone.
type UpdateEventReq struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	City        *string          `json:"city,omitempty" validate:"omitempty,max=80"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=80"`
	StartTime   *time.Time       `json:"start_time,omitempty"`
	EndTime     *time.Time       `json:"end_time,omitempty"`
	Tickets     *[]TicketTierReq `json:"tickets,omitempty" validate:"omitempty,max=10,dive"`
}

// TakeDownReq is the body of cancel and suspend.
type TakeDownReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
