package domain

import (
	"fmt"
	"time"
)

// ProjectDisplayStatus derives the client-facing status from the persisted one.
//
// draft, cancelled and suspended pass through unchanged. published and completed
// are resolved against the half-open interval [start, end): before start the event
// is upcoming, inside it ongoing, from end onwards completed.
//
// The caller guarantees start < end (NewDraft and ApplyUpdate reject anything else).
// If that precondition is broken the result is still one of the six display values,
// but may be misleading (e.g. never ongoing).
func ProjectDisplayStatus(status EventStatus, start, end, now time.Time) DisplayStatus {
	switch status {
	case StatusDraft:
		return DisplayDraft
	case StatusCancelled:
		return DisplayCancelled
	case StatusSuspended:
		return DisplaySuspended
	case StatusPublished, StatusCompleted:
		// a persisted completed is past its end by construction (Complete requires it),
		// so it lands on DisplayCompleted below.
	default:
		panic(fmt.Sprintf("domain: unhandled event status %q", status))
	}

	switch {
	case now.Before(start):
		return DisplayUpcoming
	case now.Before(end):
		return DisplayOngoing
	default:
		return DisplayCompleted
	}
}

// DisplayStatus projects e at now.
func (e *Event) DisplayStatus(now time.Time) DisplayStatus {
	return ProjectDisplayStatus(e.Status, e.StartTime, e.EndTime, now)
}
