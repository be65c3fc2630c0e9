package schedule

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

var skipSuggested = map[string]bool{
	"partner lessons": true,
	"partner lesson":  true,
	"partner dancing": true,
}

// SuggestedAction flags planned dances that are usually not real lessons.
// It is a hint only.
func SuggestedAction(plannedDance string) model.SuggestedAction {
	if skipSuggested[strings.ToLower(strings.TrimSpace(plannedDance))] {
		return model.SuggestSkip
	}
	return model.SuggestNone
}

// LessonDate returns the calendar date a slot at lessonMinutes happens on.
// For events that end after midnight, a slot earlier in the day than the
// event's start belongs to the next day.
func LessonDate(e model.Event, lessonMinutes int) wallclock.Date {
	if e.EndDayOffset != 1 {
		return e.Date
	}
	start, err := wallclock.ParseTime(e.StartTime)
	if err != nil {
		return e.Date
	}
	if lessonMinutes < start {
		return e.Date.AddDays(1)
	}
	return e.Date
}

// DueSlot is a slot that has come due, with its effective date and time.
type DueSlot struct {
	Event   model.Event
	Index   int
	Slot    model.LessonSlot
	Date    wallclock.Date
	Minutes int
}

// SlotDue reports whether a slot is uncommitted with a valid time that is at
// or before now, returning the effective lesson date and minutes.
func SlotDue(e model.Event, l model.LessonSlot, now wallclock.Moment) (wallclock.Date, int, bool) {
	if l.Committed || l.Time == nil {
		return wallclock.Date{}, 0, false
	}
	m, err := wallclock.ParseTime(*l.Time)
	if err != nil {
		return wallclock.Date{}, 0, false
	}
	d := LessonDate(e, m)
	return d, m, now.NotAfter(d, m)
}

// DueSlots scans events for due slots. Cancelled events are ignored. The
// result is ordered by lesson date, then time, then event id and slot order.
func DueSlots(events []model.Event, now wallclock.Moment) []DueSlot {
	var out []DueSlot
	for _, e := range events {
		if e.IsCancelled {
			continue
		}
		for i, l := range e.Lessons {
			d, m, ok := SlotDue(e, l, now)
			if !ok {
				continue
			}
			out = append(out, DueSlot{Event: e, Index: i, Slot: l, Date: d, Minutes: m})
		}
	}
	slices.SortStableFunc(out, func(a, b DueSlot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Minutes, b.Minutes); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Event.ID, b.Event.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return out
}
