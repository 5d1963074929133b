package domain

import (
	"fmt"
	"time"
)

type CompareOp string

const (
	OpGT  CompareOp = "gt"  // column > value
	OpLTE CompareOp = "lte" // column <= value
)

// TimeBound is a single comparison against a timestamp column.
type TimeBound struct {
	Op    CompareOp
	Value time.Time
}

func (b TimeBound) Matches(t time.Time) bool {
	switch b.Op {
	case OpGT:
		return t.After(b.Value)
	case OpLTE:
		return !t.After(b.Value)
	default:
		panic(fmt.Sprintf("domain: unhandled compare op %q", b.Op))
	}
}

// StatusFilter is the storage-level predicate for a requested display status.
// Zero value means "no filtering on status". It is merged (AND) into the rest of a
// list query by the repository.
type StatusFilter struct {
	Status EventStatus // "" = any
	Start  *TimeBound
	End    *TimeBound
}

func (f StatusFilter) IsEmpty() bool {
	return f.Status == "" && f.Start == nil && f.End == nil
}

// Matches evaluates the predicate in memory with the same semantics the SQL has.
func (f StatusFilter) Matches(e *Event) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Start != nil && !f.Start.Matches(e.StartTime) {
		return false
	}
	if f.End != nil && !f.End.Matches(e.EndTime) {
		return false
	}
	return true
}

// BuildStatusFilter translates a requested display status into a storage predicate.
// now must be the same instant used to project the returned rows.
//
// completed only matches rows still persisted as published whose end has passed;
// rows explicitly written as completed by the wrap-up workflow are not matched.
// The projector, on the other hand, shows those rows as completed. This asymmetry
// is kept on purpose until product decides which one is right.
func BuildStatusFilter(requested DisplayStatus, now time.Time) StatusFilter {
	switch requested {
	case "":
		return StatusFilter{}
	case DisplayDraft:
		return StatusFilter{Status: StatusDraft}
	case DisplayCancelled:
		return StatusFilter{Status: StatusCancelled}
	case DisplaySuspended:
		return StatusFilter{Status: StatusSuspended}
	case DisplayPublished:
		return StatusFilter{Status: StatusPublished}
	case DisplayUpcoming:
		return StatusFilter{
			Status: StatusPublished,
			Start:  &TimeBound{Op: OpGT, Value: now},
		}
	case DisplayOngoing:
		return StatusFilter{
			Status: StatusPublished,
			Start:  &TimeBound{Op: OpLTE, Value: now},
			End:    &TimeBound{Op: OpGT, Value: now},
		}
	case DisplayCompleted:
		return StatusFilter{
			Status: StatusPublished,
			End:    &TimeBound{Op: OpLTE, Value: now},
		}
	default:
		// unrecognised input is ignored, not rejected
		return StatusFilter{}
	}
}
