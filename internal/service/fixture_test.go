package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/memstore"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

type fixture struct {
	ctx       context.Context
	mem       *memstore.Store
	stores    Stores
	loc       *time.Location
	catalog   *CatalogService
	events    *EventService
	venue     *model.Venue
	eventType *model.EventType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := wallclock.LoadZone("")
	require.NoError(t, err)

	mem := memstore.New()
	st := Stores{Venues: mem, EventTypes: mem, Frequencies: mem, Events: mem, Facts: mem, Dances: mem}
	f := &fixture{
		ctx:     context.Background(),
		mem:     mem,
		stores:  st,
		loc:     loc,
		catalog: NewCatalogService(st),
		events:  NewEventService(st, 92, nil),
	}

	f.venue, err = f.catalog.CreateVenue(f.ctx, model.VenueRequest{Name: "Grange Hall"})
	require.NoError(t, err)
	f.eventType, err = f.catalog.CreateEventType(f.ctx, model.EventTypeRequest{
		Title:                  "Wednesday Swing",
		Level:                  "Beginner",
		Price:                  "$10",
		VenueID:                f.venue.ID,
		DefaultStartTime:       "7:00 PM",
		DefaultDurationMinutes: 120,
	})
	require.NoError(t, err)
	return f
}

// materialize stores an event for the fixture's type and returns it.
func (f *fixture) materialize(t *testing.T, date, start string, slots int) *model.Event {
	t.Helper()
	res, err := f.events.Materialize(f.ctx, model.MaterializeRequest{
		EventTypeID: f.eventType.ID,
		Date:        date,
		StartTime:   start,
		SeedSlots:   slots,
	})
	require.NoError(t, err)
	return res.Event
}

// plan replaces the event's slots through the store.
func (f *fixture) plan(t *testing.T, id string, slots ...model.LessonSlot) *model.Event {
	t.Helper()
	e, err := f.mem.ModifyEvent(f.ctx, id, func(e *model.Event) ([]model.LessonFact, error) {
		e.Lessons = slots
		return nil, nil
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) dance(t *testing.T, name string) *model.Dance {
	t.Helper()
	d := &model.Dance{Name: name}
	require.NoError(t, f.mem.CreateDance(f.ctx, d))
	return d
}

func (f *fixture) facts(t *testing.T) []model.LessonFact {
	t.Helper()
	facts, err := f.mem.ListLessonFacts(f.ctx, repository.LessonFactFilter{})
	require.NoError(t, err)
	return facts
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// fieldErrors asserts err is a validation failure and returns it by field.
func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	var ve validation.Errors
	require.True(t, errors.As(err, &ve), "expected validation.Errors, got %v", err)
	return ve
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]model.LessonFact
	err     error
}

func (p *recordingPublisher) PublishTaught(_ context.Context, facts []model.LessonFact) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, facts)
	return p.err
}

func (p *recordingPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}
