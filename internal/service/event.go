package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/metrics"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

const maxSeedSlots = 10

// EventService owns persisted events: materializing occurrences, one-off
// events, planning edits and the read views over them.
type EventService struct {
	stores  Stores
	maxDays int
	metrics *metrics.Metrics
}

// NewEventService constructs an EventService.
func NewEventService(st Stores, maxDays int, m *metrics.Metrics) *EventService {
	return &EventService{stores: st, maxDays: maxDays, metrics: m}
}

// ─── Materialize ─────────────────────────────────────────────────────────────

func validateMaterialize(req *model.MaterializeRequest) error {
	req.EventTypeID = strings.TrimSpace(req.EventTypeID)
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)
	return validation.ValidateStruct(req,
		validation.Field(&req.EventTypeID, validation.Required),
		validation.Field(&req.Date, validation.Required, dateRule),
		validation.Field(&req.StartTime, validation.Required, timeRule),
		validation.Field(&req.DurationMinutes,
			validation.When(req.DurationMinutes != nil, validation.Min(1), validation.Max(wallclock.MinutesPerDay)),
			validation.When(req.EndTime != nil, validation.Nil.Error("give either durationMinutes or endTime")),
		),
		validation.Field(&req.EndTime, validation.When(req.EndTime != nil, validation.Required, timeRule)),
		validation.Field(&req.EndDayOffset, validation.In(0, 1)),
		validation.Field(&req.SeedSlots, validation.Min(0), validation.Max(maxSeedSlots)),
	)
}

// resolveOffset layers a per-occurrence choice over the type's default.
// With neither, a duration that runs past midnight implies offset 1.
func resolveOffset(req model.MaterializeRequest, t *model.EventType, startMin int) int {
	switch {
	case req.EndsNextDay:
		return 1
	case req.EndDayOffset != nil:
		return *req.EndDayOffset
	case t.EndDayOffset != nil:
		return *t.EndDayOffset
	case req.EndTime == nil:
		dur := deref(req.DurationMinutes, t.DefaultDurationMinutes)
		if startMin+dur >= wallclock.MinutesPerDay {
			return 1
		}
	}
	return 0
}

// Materialize creates the persisted event for an occurrence, or returns the
// existing one. Repeat calls with the same (eventTypeId, date, startTime)
// converge on one row and never overwrite its planning data.
func (s *EventService) Materialize(ctx context.Context, req model.MaterializeRequest) (*model.MaterializeResult, error) {
	if err := validateMaterialize(&req); err != nil {
		return nil, err
	}
	t, err := s.stores.EventTypes.GetEventType(ctx, req.EventTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event type")
		}
		return nil, fmt.Errorf("get event type: %w", err)
	}

	date := wallclock.MustDate(req.Date)
	start, _ := wallclock.NormalizeTime(req.StartTime)
	startMin, _ := wallclock.ParseTime(start)
	offset := resolveOffset(req, t, startMin)

	var (
		end string
		dur int
	)
	if req.EndTime != nil {
		end, _ = wallclock.NormalizeTime(*req.EndTime)
		if offset == 1 {
			dur, err = wallclock.OvernightDuration(start, end)
		} else {
			dur, err = wallclock.ComputeDuration(start, end)
		}
		if err != nil {
			return nil, fieldError("endTime", "must be after startTime unless the event ends after midnight")
		}
	} else {
		dur = deref(req.DurationMinutes, t.DefaultDurationMinutes)
		end, err = wallclock.AddDuration(start, dur)
		if err != nil {
			return nil, fieldError("durationMinutes", "must be positive")
		}
	}

	e := &model.Event{
		EventTypeID:     t.ID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: dur,
		EndDayOffset:    offset,
		Lessons:         seedSlots(req.SeedSlots),
	}
	id, created, err := s.stores.Events.UpsertEvent(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("upsert event: %w", err)
	}
	stored, err := s.stores.Events.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read back event %s: %w: %v", id, ErrIntegrity, err)
	}
	s.metrics.TrackMaterialize(created)
	return &model.MaterializeResult{EventID: id, Created: created, Event: stored}, nil
}

func seedSlots(n int) []model.LessonSlot {
	slots := make([]model.LessonSlot, n)
	for i := range slots {
		slots[i].ID = uuid.New().String()
	}
	return slots
}

// CreateOneOff materializes an event for any type, active or not, with an
// explicit end time.
func (s *EventService) CreateOneOff(ctx context.Context, req model.OneOffEventRequest) (*model.MaterializeResult, error) {
	if strings.TrimSpace(req.EndTime) == "" {
		return nil, fieldError("endTime", "cannot be blank")
	}
	end := req.EndTime
	return s.Materialize(ctx, model.MaterializeRequest{
		EventTypeID: req.EventTypeID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     &end,
		EndsNextDay: req.EndsNextDay,
		SeedSlots:   req.SeedSlots,
	})
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// GetDetail returns an event joined with its type and venue.
func (s *EventService) GetDetail(ctx context.Context, id string) (*model.EventDetail, error) {
	e, err := s.stores.Events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("event")
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	d := &model.EventDetail{Event: *e}
	d.EventType, d.Venue, err = s.joinType(ctx, e.EventTypeID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *EventService) joinType(ctx context.Context, eventTypeID string) (*model.EventTypeSummary, *model.Venue, error) {
	t, err := s.stores.EventTypes.GetEventType(ctx, eventTypeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get event type: %w", err)
	}
	v, err := s.stores.Venues.GetVenue(ctx, t.VenueID)
	if errors.Is(err, repository.ErrNotFound) {
		return t.Summary(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get venue: %w", err)
	}
	return t.Summary(), v, nil
}

// List returns persisted events in [from, to], ordered by date then start
// time of day.
func (s *EventService) List(ctx context.Context, from, to string) ([]model.Event, error) {
	w, err := ParseWindow(from, to, s.maxDays)
	if err != nil {
		return nil, err
	}
	events, err := s.stores.Events.ListEvents(ctx, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sortEvents(events)
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

func sortEvents(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(minutesOr(a.StartTime), minutesOr(b.StartTime)),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

func minutesOr(s string) int {
	m, err := wallclock.ParseTime(s)
	if err != nil {
		return wallclock.MinutesPerDay
	}
	return m
}

// Overview joins every persisted event in range with its type and venue.
// Cancelled events are dropped unless includeCancelled is set.
func (s *EventService) Overview(ctx context.Context, from, to string, includeCancelled bool) ([]model.EventDetail, error) {
	events, err := s.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	types, venues, err := loadCatalogMaps(ctx, s.stores)
	if err != nil {
		return nil, err
	}

	out := make([]model.EventDetail, 0, len(events))
	for _, e := range events {
		if e.IsCancelled && !includeCancelled {
			continue
		}
		d := model.EventDetail{Event: e}
		if t, ok := types[e.EventTypeID]; ok {
			d.EventType = t.Summary()
			if v, ok := venues[t.VenueID]; ok {
				d.Venue = &v
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func loadCatalogMaps(ctx context.Context, st Stores) (map[string]model.EventType, map[string]model.Venue, error) {
	ts, err := st.EventTypes.ListEventTypes(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("list event types: %w", err)
	}
	vs, err := st.Venues.ListVenues(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list venues: %w", err)
	}
	types := make(map[string]model.EventType, len(ts))
	for _, t := range ts {
		types[t.ID] = t
	}
	venues := make(map[string]model.Venue, len(vs))
	for _, v := range vs {
		venues[v.ID] = v
	}
	return types, venues, nil
}

// ─── Patch ───────────────────────────────────────────────────────────────────

func validatePatch(p *model.EventPatch) error {
	errs := validation.Errors{
		"startTime": validation.Validate(p.StartTime, validation.When(p.StartTime != nil, validation.Required, timeRule)),
		"endTime":   validation.Validate(p.EndTime, timeRule),
	}
	if p.Lessons.Set && p.Lessons.Value != nil {
		slotErrs := validation.Errors{}
		for i, l := range *p.Lessons.Value {
			if err := validation.Validate(l.Time, timeRule); err != nil {
				slotErrs[fmt.Sprintf("%d", i)] = validation.Errors{"time": err}
			}
		}
		if len(slotErrs) > 0 {
			errs["lessons"] = slotErrs
		}
	}
	return errs.Filter()
}

// Patch applies whitelisted edits under the event's lock. Slots sent with a
// known id keep their committed flag; slots without one are new. Changing
// startTime moves the event to a new identity key, which fails with
// repository.ErrConflict if another event already holds it.
func (s *EventService) Patch(ctx context.Context, id string, p model.EventPatch) (*model.Event, error) {
	if err := validatePatch(&p); err != nil {
		return nil, err
	}
	updated, err := s.stores.Events.ModifyEvent(ctx, id, func(e *model.Event) ([]model.LessonFact, error) {
		timesChanged := false
		if p.StartTime != nil {
			start, _ := wallclock.NormalizeTime(*p.StartTime)
			timesChanged = timesChanged || start != e.StartTime
			e.StartTime = start
		}
		if p.EndTime != nil {
			end := ""
			if strings.TrimSpace(*p.EndTime) != "" {
				end, _ = wallclock.NormalizeTime(*p.EndTime)
			}
			timesChanged = timesChanged || end != e.EndTime
			e.EndTime = end
		}
		if timesChanged {
			if err := recomputeDuration(e); err != nil {
				return nil, err
			}
		}
		if p.IsCancelled != nil {
			e.IsCancelled = *p.IsCancelled
		}
		if p.CancelNote.Set {
			e.CancelNote = p.CancelNote.Value
		}
		if p.Substitute.Set {
			e.Substitute = p.Substitute.Value
		}
		if p.Lessons.Set {
			e.Lessons = mergeSlots(e.Lessons, p.Lessons.Value)
		}
		return nil, nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound("event")
	case errors.Is(err, repository.ErrConflict):
		return nil, fmt.Errorf("another event already starts at that time: %w", repository.ErrConflict)
	case err != nil:
		return nil, err
	}
	return updated, nil
}

// recomputeDuration keeps durationMinutes consistent with the times. With
// no end time the duration stands and the end is derived from it.
func recomputeDuration(e *model.Event) error {
	if e.EndTime == "" {
		if e.DurationMinutes > 0 {
			e.EndTime, _ = wallclock.AddDuration(e.StartTime, e.DurationMinutes)
		}
		return nil
	}
	var (
		dur int
		err error
	)
	if e.EndDayOffset == 1 {
		dur, err = wallclock.OvernightDuration(e.StartTime, e.EndTime)
	} else {
		dur, err = wallclock.ComputeDuration(e.StartTime, e.EndTime)
	}
	if err != nil {
		return fieldError("endTime", "must be after startTime")
	}
	e.DurationMinutes = dur
	return nil
}

// mergeSlots builds the new slot list. Order follows the input; committed
// is carried over by slot id and never taken from the client.
func mergeSlots(existing []model.LessonSlot, in *[]model.LessonSlotInput) []model.LessonSlot {
	if in == nil {
		return []model.LessonSlot{}
	}
	byID := make(map[string]model.LessonSlot, len(existing))
	for _, l := range existing {
		byID[l.ID] = l
	}
	out := make([]model.LessonSlot, 0, len(*in))
	for _, l := range *in {
		slot := model.LessonSlot{
			Time:    normalizeSlotTime(l.Time),
			DanceID: blankToNil(l.DanceID),
			Dance:   blankToNil(l.Dance),
			Level:   blankToNil(l.Level),
			Link:    blankToNil(l.Link),
		}
		if l.ID != nil {
			if old, ok := byID[*l.ID]; ok {
				slot.ID = old.ID
				slot.Committed = old.Committed
				delete(byID, old.ID)
			}
		}
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		out = append(out, slot)
	}
	return out
}

func normalizeSlotTime(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	t, err := wallclock.NormalizeTime(*s)
	if err != nil {
		return nil
	}
	return &t
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
