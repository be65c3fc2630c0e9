package recurrence

import (
	"fmt"
	"iter"

	"github.com/teambition/rrule-go"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// Window is an inclusive range of calendar dates.
type Window struct {
	From wallclock.Date
	To   wallclock.Date
}

// Empty reports whether the window contains no days.
func (w Window) Empty() bool { return w.To.Before(w.From) }

// Contains reports whether d lies inside the window.
func (w Window) Contains(d wallclock.Date) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Bounds optionally limits the dates a rule is active on. A nil end is open.
type Bounds struct {
	Start *wallclock.Date
	End   *wallclock.Date
}

// Clamp intersects the query window with the bounds.
func (b Bounds) Clamp(w Window) Window {
	if b.Start != nil {
		w.From = wallclock.MaxDate(w.From, *b.Start)
	}
	if b.End != nil {
		w.To = wallclock.MinDate(w.To, *b.End)
	}
	return w
}

// indexed by time.Weekday
var rruleDays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

func options(r Rule, w Window) (rrule.ROption, error) {
	opt := rrule.ROption{
		Dtstart: w.From.Time(),
		Until:   w.To.Time(),
	}
	switch r := r.(type) {
	case WeeklyRule:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.Days {
			opt.Byweekday = append(opt.Byweekday, rruleDays[d])
		}
	case MonthlyNthRule:
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{rruleDays[r.Weekday].Nth(r.Nth)}
	default:
		return opt, fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, r)
	}
	return opt, nil
}

// Dates lazily yields, in ascending order, every date on which r fires
// inside the window after it has been clamped by bounds.
func Dates(r Rule, b Bounds, w Window) (iter.Seq[wallclock.Date], error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w = b.Clamp(w)
	if w.Empty() {
		return func(func(wallclock.Date) bool) {}, nil
	}
	opt, err := options(r, w)
	if err != nil {
		return nil, err
	}
	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	return func(yield func(wallclock.Date) bool) {
		next := rr.Iterator()
		for {
			t, ok := next()
			if !ok {
				return
			}
			d := wallclock.DateOf(t)
			if !w.Contains(d) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}, nil
}

// Expand collects Dates into a slice.
func Expand(r Rule, b Bounds, w Window) ([]wallclock.Date, error) {
	seq, err := Dates(r, b, w)
	if err != nil {
		return nil, err
	}
	var out []wallclock.Date
	for d := range seq {
		out = append(out, d)
	}
	return out, nil
}
