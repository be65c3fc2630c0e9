package service

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/calendar"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/logging"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/metrics"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/schedule"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// OccurrenceQuery is a listing request as it arrives from the query string.
type OccurrenceQuery struct {
	From          string
	To            string
	OnlyUnplanned bool
	IncludeOneOff bool
}

// OccurrenceService lists the merged view of rules and persisted events.
type OccurrenceService struct {
	stores  Stores
	loc     *time.Location
	maxDays int
	clock   wallclock.Clock
	metrics *metrics.Metrics
}

// NewOccurrenceService constructs an OccurrenceService. maxDays caps the
// width of a listing window.
func NewOccurrenceService(st Stores, loc *time.Location, maxDays int, clock wallclock.Clock, m *metrics.Metrics) *OccurrenceService {
	return &OccurrenceService{stores: st, loc: loc, maxDays: maxDays, clock: clock, metrics: m}
}

// ParseWindow validates a [from, to] pair of YYYY-MM-DD strings.
func ParseWindow(from, to string, maxDays int) (recurrence.Window, error) {
	errs := validation.Errors{
		"from": validation.Validate(from, validation.Required, dateRule),
		"to":   validation.Validate(to, validation.Required, dateRule),
	}
	if err := errs.Filter(); err != nil {
		return recurrence.Window{}, err
	}
	w := recurrence.Window{From: wallclock.MustDate(from), To: wallclock.MustDate(to)}
	if w.Empty() {
		return recurrence.Window{}, fieldError("to", "must not be before from")
	}
	if maxDays > 0 && w.From.DaysUntil(w.To) >= maxDays {
		return recurrence.Window{}, fieldError("to", fmt.Sprintf("window may span at most %d days", maxDays))
	}
	return w, nil
}

// List expands every active rule over the window and overlays persisted
// events. A rule that cannot be expanded is logged and left out; the rest
// of the listing is still returned.
func (s *OccurrenceService) List(ctx context.Context, q OccurrenceQuery) ([]model.Occurrence, error) {
	w, err := ParseWindow(q.From, q.To, s.maxDays)
	if err != nil {
		return nil, err
	}

	var (
		cat    schedule.Catalog
		events []model.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat.EventTypes, err = s.stores.EventTypes.ListEventTypes(gctx, false)
		return err
	})
	g.Go(func() error {
		var err error
		cat.Venues, err = s.stores.Venues.ListVenues(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cat.Frequencies, err = s.stores.Frequencies.ListFrequencies(gctx, repository.FrequencyFilter{ActiveOnly: true})
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.stores.Events.ListEvents(gctx, w.From, w.To)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	occs, err := schedule.Merge(w, cat, events, schedule.MergeOptions{
		OnlyUnplanned: q.OnlyUnplanned,
		IncludeOneOff: q.IncludeOneOff,
	})
	if err != nil {
		logging.Warn("skipped unexpandable frequencies", "err", err, "from", w.From, "to", w.To)
	}
	if occs == nil {
		occs = []model.Occurrence{}
	}
	s.metrics.TrackOccurrences(len(occs))
	return occs, nil
}

// Calendar renders the same listing as an iCalendar document.
func (s *OccurrenceService) Calendar(ctx context.Context, q OccurrenceQuery) (string, error) {
	occs, err := s.List(ctx, q)
	if err != nil {
		return "", err
	}
	return calendar.Render(occs, calendar.Options{
		Name:     "Lesson schedule",
		Location: s.loc,
		Stamp:    s.clock.Now().UTC(),
	}), nil
}
