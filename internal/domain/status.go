package domain

import "strings"

// EventStatus is the lifecycle state stored on the event row.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusCancelled EventStatus = "cancelled"
	StatusSuspended EventStatus = "suspended"
	StatusCompleted EventStatus = "completed"
)

// AllEventStatuses lists every persisted status. Tests walk this list through the
// projector and the filter translator, so a new member must be added here.
func AllEventStatuses() []EventStatus {
	return []EventStatus{StatusDraft, StatusPublished, StatusCancelled, StatusSuspended, StatusCompleted}
}

func (s EventStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCancelled, StatusSuspended, StatusCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s EventStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusSuspended || s == StatusCompleted
}

// DisplayStatus is what API clients see. It is derived at response time and never stored.
type DisplayStatus string

const (
	DisplayDraft     DisplayStatus = "draft"
	DisplayUpcoming  DisplayStatus = "upcoming"
	DisplayOngoing   DisplayStatus = "ongoing"
	DisplayCompleted DisplayStatus = "completed"
	DisplayCancelled DisplayStatus = "cancelled"
	DisplaySuspended DisplayStatus = "suspended"

	// DisplayPublished is only meaningful as a requested filter value.
	DisplayPublished DisplayStatus = "published"
)

func AllDisplayStatuses() []DisplayStatus {
	return []DisplayStatus{
		DisplayDraft, DisplayUpcoming, DisplayOngoing, DisplayCompleted,
		DisplayCancelled, DisplaySuspended, DisplayPublished,
	}
}

func (d DisplayStatus) Valid() bool {
	switch d {
	case DisplayDraft, DisplayUpcoming, DisplayOngoing, DisplayCompleted,
		DisplayCancelled, DisplaySuspended, DisplayPublished:
		return true
	}
	return false
}

// TimeDerived reports whether membership in d depends on the clock.
func (d DisplayStatus) TimeDerived() bool {
	return d == DisplayUpcoming || d == DisplayOngoing || d == DisplayCompleted
}

// ParseDisplayStatus accepts the `status` query parameter.
// Unknown values report ok=false and are treated as "no status filter".
func ParseDisplayStatus(raw string) (DisplayStatus, bool) {
	d := DisplayStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", false
	}
	return d, true
}
