package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CancelActor records who took an event off sale.
type CancelActor string

const (
	CancelledByHost  CancelActor = "host"
	CancelledByAdmin CancelActor = "admin"
)

// Cancellation is present iff Status is cancelled or suspended.
type Cancellation struct {
	Reason      string      `json:"reason"`
	CancelledBy CancelActor `json:"cancelled_by"`
	CancelledAt time.Time   `json:"cancelled_at"`
}

type Event struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	City        string
	Category    string
	StartTime   time.Time
	EndTime     time.Time
	Tickets     []TicketTier

	Status       EventStatus
	PublishedAt  *time.Time
	CompletedAt  *time.Time
	Cancellation *Cancellation

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDraft(ownerID, title, description, city, category string, start, end time.Time, tickets []TicketTier, now time.Time) (*Event, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrValidation("owner_id is required")
	}
	e := &Event{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Status:    StatusDraft,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := e.setDetails(title, description, city, category); err != nil {
		return nil, err
	}
	if err := checkSchedule(start, end); err != nil {
		return nil, err
	}
	e.StartTime = start.UTC()
	e.EndTime = end.UTC()

	tiers, err := normalizeTiers(tickets)
	if err != nil {
		return nil, err
	}
	e.Tickets = tiers
	return e, nil
}

func (e *Event) setDetails(title, description, city, category string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	city = strings.TrimSpace(city)
	category = strings.TrimSpace(category)

	if title == "" || len(title) > 120 {
		return ErrValidation("title is required and must be <= 120 chars")
	}
	if description == "" || len(description) > 4000 {
		return ErrValidation("description is required and must be <= 4000 chars")
	}
	if city == "" || len(city) > 80 {
		return ErrValidation("city is required and must be <= 80 chars")
	}
	if category == "" || len(category) > 80 {
		return ErrValidation("category is required and must be <= 80 chars")
	}
	e.Title, e.Description, e.City, e.Category = title, description, city, category
	return nil
}

// checkSchedule guards the projector precondition start < end.
func checkSchedule(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrValidationMeta("invalid schedule", map[string]string{
			"start_time": "required", "end_time": "required",
		})
	}
	if !end.After(start) {
		return ErrValidationMeta("invalid schedule", map[string]string{
			"end_time": "must be after start_time",
		})
	}
	return nil
}

func (e *Event) IsEnded(now time.Time) bool {
	return !now.Before(e.EndTime) // now >= end_time => ended
}

func (e *Event) Publish(now time.Time) error {
	if e.Status != StatusDraft {
		return ErrInvalidState("only draft can be published")
	}
	if !e.StartTime.After(now) {
		return ErrValidationMeta("invalid start_time", map[string]string{
			"start_time": "cannot publish event in the past",
		})
	}
	t := now.UTC()
	e.Status = StatusPublished
	e.PublishedAt = &t
	e.UpdatedAt = t
	return nil
}

// Cancel is the host taking a published event off sale.
func (e *Event) Cancel(reason string, now time.Time) error {
	return e.takeDown(StatusCancelled, CancelledByHost, reason, now)
}

// Suspend is the admin counterpart of Cancel.
func (e *Event) Suspend(reason string, now time.Time) error {
	return e.takeDown(StatusSuspended, CancelledByAdmin, reason, now)
}

func (e *Event) takeDown(to EventStatus, by CancelActor, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > 500 {
		return ErrValidation("reason is required and must be <= 500 chars")
	}
	switch e.Status {
	case StatusPublished:
	case StatusCancelled, StatusSuspended:
		return ErrInvalidState("event already " + string(e.Status))
	default:
		return ErrInvalidState("only published events can be " + string(to))
	}
	if e.IsEnded(now) {
		return ErrInvalidState("event has already ended")
	}
	t := now.UTC()
	e.Status = to
	e.Cancellation = &Cancellation{Reason: reason, CancelledBy: by, CancelledAt: t}
	e.UpdatedAt = t
	return nil
}

// Complete is the administrative wrap-up after the event has run.
func (e *Event) Complete(now time.Time) error {
	if e.Status != StatusPublished {
		return ErrInvalidState("only published events can be completed")
	}
	if !e.IsEnded(now) {
		return ErrInvalidState("event has not ended yet")
	}
	t := now.UTC()
	e.Status = StatusCompleted
	e.CompletedAt = &t
	e.UpdatedAt = t
	return nil
}

// Patch carries optional field updates; nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	City        *string
	Category    *string
	StartTime   *time.Time
	EndTime     *time.Time
	Tickets     *[]TicketTier
}

// ApplyUpdate edits draft or published events that have not ended.
// The schedule is frozen once published.
func (e *Event) ApplyUpdate(p Patch, now time.Time) error {
	if e.Status.Terminal() {
		return ErrInvalidState(string(e.Status) + " event cannot be updated")
	}
	if e.IsEnded(now) {
		return ErrInvalidState("ended event cannot be updated")
	}
	if (p.StartTime != nil || p.EndTime != nil) && e.Status != StatusDraft {
		return ErrInvalidState("schedule cannot change after publish")
	}

	title, desc, city, cat := e.Title, e.Description, e.City, e.Category
	if p.Title != nil {
		title = *p.Title
	}
	if p.Description != nil {
		desc = *p.Description
	}
	if p.City != nil {
		city = *p.City
	}
	if p.Category != nil {
		cat = *p.Category
	}

	start, end := e.StartTime, e.EndTime
	if p.StartTime != nil {
		start = *p.StartTime
	}
	if p.EndTime != nil {
		end = *p.EndTime
	}
	if err := checkSchedule(start, end); err != nil {
		return err
	}

	tiers := e.Tickets
	if p.Tickets != nil {
		t, err := normalizeTiers(*p.Tickets)
		if err != nil {
			return err
		}
		tiers = t
	}

	// validate everything before mutating
	next := *e
	if err := next.setDetails(title, desc, city, cat); err != nil {
		return err
	}
	next.StartTime = start.UTC()
	next.EndTime = end.UTC()
	next.Tickets = tiers
	next.UpdatedAt = now.UTC()
	*e = next
	return nil
}
