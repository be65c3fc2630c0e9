package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// Catalog is the reference data a merge needs. EventTypes should include
// inactive types so one-off Events can still be labelled.
type Catalog struct {
	EventTypes  []model.EventType
	Venues      []model.Venue
	Frequencies []model.Frequency
}

// MergeOptions filters the merged listing.
type MergeOptions struct {
	OnlyUnplanned bool
	// IncludeOneOff adds persisted Events in the window that no active
	// rule produces.
	IncludeOneOff bool
}

// Merge expands every active Frequency of every active EventType over w,
// overlays the persisted events by identity key and labels each occurrence.
// Persisted data wins over virtual data. A Frequency that cannot be
// expanded is skipped and reported in the returned error; the occurrences
// that could be built are still returned.
func Merge(w recurrence.Window, cat Catalog, events []model.Event, opts MergeOptions) ([]model.Occurrence, error) {
	types := make(map[string]model.EventType, len(cat.EventTypes))
	for _, t := range cat.EventTypes {
		types[t.ID] = t
	}
	venues := make(map[string]model.Venue, len(cat.Venues))
	for _, v := range cat.Venues {
		venues[v.ID] = v
	}
	persisted := make(map[Key]model.Event, len(events))
	for _, e := range events {
		if w.Contains(e.Date) {
			persisted[EventKey(e)] = e
		}
	}

	var errs []error
	seen := make(map[Key]struct{})
	var out []model.Occurrence

	for _, f := range cat.Frequencies {
		t, ok := types[f.EventTypeID]
		if !ok || !t.IsActive || !f.IsActive {
			continue
		}
		end, err := wallclock.AddDuration(f.StartTime, f.DurationMinutes)
		if err != nil {
			errs = append(errs, fmt.Errorf("frequency %s: %w", f.ID, err))
			continue
		}
		dates, err := recurrence.Dates(f.Rule, f.Bounds(), w)
		if err != nil {
			errs = append(errs, fmt.Errorf("frequency %s: %w", f.ID, err))
			continue
		}
		offset := virtualEndDayOffset(t, f)
		for d := range dates {
			key := KeyOf(t.ID, d, f.StartTime)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			occ := model.Occurrence{
				Key:             key.String(),
				EventTypeID:     t.ID,
				FrequencyID:     &f.ID,
				Date:            d,
				StartTime:       f.StartTime,
				EndTime:         end,
				DurationMinutes: f.DurationMinutes,
				EndDayOffset:    offset,
				Lessons:         []model.LessonSlot{},
				EventType:       t.Summary(),
				Venue:           venueOf(venues, t.VenueID),
			}
			if e, ok := persisted[key]; ok {
				overlay(&occ, e)
				occ.Status = StatusOf(&e)
			} else {
				occ.Status = StatusOf(nil)
			}
			out = append(out, occ)
		}
	}

	if opts.IncludeOneOff {
		for key, e := range persisted {
			if _, ok := seen[key]; ok {
				continue
			}
			occ := model.Occurrence{
				Key:         key.String(),
				EventTypeID: e.EventTypeID,
				Date:        e.Date,
				StartTime:   e.StartTime,
				Lessons:     []model.LessonSlot{},
			}
			if t, ok := types[e.EventTypeID]; ok {
				occ.EventType = t.Summary()
				occ.Venue = venueOf(venues, t.VenueID)
			}
			overlay(&occ, e)
			occ.Status = StatusOf(&e)
			out = append(out, occ)
		}
	}

	if opts.OnlyUnplanned {
		out = slices.DeleteFunc(out, func(o model.Occurrence) bool {
			return o.Status != model.StatusUnplanned
		})
	}
	SortOccurrences(out)
	return out, errors.Join(errs...)
}

func overlay(o *model.Occurrence, e model.Event) {
	id := e.ID
	o.EventID = &id
	o.IsCancelled = e.IsCancelled
	o.CancelNote = e.CancelNote
	o.Substitute = e.Substitute
	if e.Lessons != nil {
		o.Lessons = e.Lessons
	}
	if e.EndTime != "" {
		o.EndTime = e.EndTime
	}
	if e.DurationMinutes > 0 {
		o.DurationMinutes = e.DurationMinutes
	}
	o.EndDayOffset = e.EndDayOffset
}

// virtualEndDayOffset prefers the type's declared offset and otherwise
// derives it from whether start+duration crosses midnight.
func virtualEndDayOffset(t model.EventType, f model.Frequency) int {
	if t.EndDayOffset != nil {
		return *t.EndDayOffset
	}
	start, err := wallclock.ParseTime(f.StartTime)
	if err != nil {
		return 0
	}
	if start+f.DurationMinutes >= wallclock.MinutesPerDay {
		return 1
	}
	return 0
}

func venueOf(venues map[string]model.Venue, id string) *model.Venue {
	v, ok := venues[id]
	if !ok {
		return nil
	}
	return &v
}

// SortOccurrences orders by date, then start time of day, then key.
func SortOccurrences(os []model.Occurrence) {
	slices.SortFunc(os, func(a, b model.Occurrence) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(startMinutes(a.StartTime), startMinutes(b.StartTime)); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}

func startMinutes(s string) int {
	m, err := wallclock.ParseTime(s)
	if err != nil {
		return wallclock.MinutesPerDay
	}
	return m
}
