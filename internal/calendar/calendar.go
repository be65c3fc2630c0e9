// Package calendar renders merged occurrences as an iCalendar feed that
// phones and calendar apps can subscribe to.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

const productID = "-//lesson-schedule//occurrences//EN"

// Options controls feed-level properties.
type Options struct {
	Name     string
	Location *time.Location
	// Stamp is written as DTSTAMP on every VEVENT.
	Stamp time.Time
}

// Render builds a VCALENDAR with one VEVENT per occurrence. The UID is the
// occurrence identity key, so a subscriber sees a materialized occurrence
// as the same event it saw while it was still virtual.
func Render(occs []model.Occurrence, opts Options) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(loc.String())

	for _, o := range occs {
		start, end, ok := span(o, loc)
		if !ok {
			continue
		}
		ev := cal.AddEvent(o.Key)
		ev.SetDtStampTime(opts.Stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(summary(o))
		if o.Venue != nil {
			ev.SetLocation(o.Venue.Name)
		}
		if d := description(o); d != "" {
			ev.SetDescription(d)
		}
		if o.Status == model.StatusCancelled {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize()
}

// span resolves wall-clock start and end to instants in loc.
func span(o model.Occurrence, loc *time.Location) (time.Time, time.Time, bool) {
	startMin, err := wallclock.ParseTime(o.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	start := wallclock.InstantOf(o.Date, startMin, loc)

	if endMin, err := wallclock.ParseTime(o.EndTime); err == nil {
		endDate := o.Date.AddDays(o.EndDayOffset)
		if end := wallclock.InstantOf(endDate, endMin, loc); end.After(start) {
			return start, end, true
		}
	}
	if o.DurationMinutes > 0 {
		return start, start.Add(time.Duration(o.DurationMinutes) * time.Minute), true
	}
	return start, start, true
}

func summary(o model.Occurrence) string {
	title := "Event"
	if o.EventType != nil && o.EventType.Title != "" {
		title = o.EventType.Title
	}
	if o.Status == model.StatusCancelled {
		return "CANCELLED: " + title
	}
	return title
}

func description(o model.Occurrence) string {
	var b strings.Builder
	if o.CancelNote != nil && *o.CancelNote != "" {
		fmt.Fprintf(&b, "Note: %s\n", *o.CancelNote)
	}
	if o.Substitute != nil && *o.Substitute != "" {
		fmt.Fprintf(&b, "Substitute: %s\n", *o.Substitute)
	}
	for _, l := range o.Lessons {
		name := strings.TrimSpace(l.DanceName())
		if name == "" {
			continue
		}
		if l.Time != nil {
			fmt.Fprintf(&b, "%s %s\n", *l.Time, name)
		} else {
			fmt.Fprintf(&b, "%s\n", name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
