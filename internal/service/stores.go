// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the stores.
package service

import (
	"context"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// VenueStore persists venues.
type VenueStore interface {
	CreateVenue(ctx context.Context, v *model.Venue) error
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
	ListVenues(ctx context.Context) ([]model.Venue, error)
	UpdateVenue(ctx context.Context, v *model.Venue) error
}

// EventTypeStore persists event types.
type EventTypeStore interface {
	CreateEventType(ctx context.Context, t *model.EventType) error
	GetEventType(ctx context.Context, id string) (*model.EventType, error)
	ListEventTypes(ctx context.Context, activeOnly bool) ([]model.EventType, error)
	UpdateEventType(ctx context.Context, t *model.EventType) error
}

// FrequencyStore persists recurrence rules.
type FrequencyStore interface {
	CreateFrequency(ctx context.Context, f *model.Frequency) error
	GetFrequency(ctx context.Context, id string) (*model.Frequency, error)
	ListFrequencies(ctx context.Context, filter repository.FrequencyFilter) ([]model.Frequency, error)
	UpdateFrequency(ctx context.Context, f *model.Frequency) error
	DeleteFrequency(ctx context.Context, id string) error
}

// EventStore persists events. UpsertEvent and ModifyEvent are the two
// atomic primitives the schedule relies on.
type EventStore interface {
	// UpsertEvent inserts e unless an event with the same
	// (eventTypeId, date, startTime) exists. It reports the id of the stored
	// row and whether this call created it. An existing row is left as is.
	UpsertEvent(ctx context.Context, e *model.Event) (id string, created bool, err error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, from, to wallclock.Date) ([]model.Event, error)
	// ListOpenEvents returns non-cancelled events with at least one
	// uncommitted lesson slot, dated on or before through.
	ListOpenEvents(ctx context.Context, through wallclock.Date) ([]model.Event, error)
	// ModifyEvent runs fn against the current row under an exclusive lock,
	// then persists the event and inserts the returned facts together.
	ModifyEvent(ctx context.Context, id string, fn repository.EventMutation) (*model.Event, error)
}

// LessonFactStore reads the taught-lesson ledger. Writes go through
// EventStore.ModifyEvent.
type LessonFactStore interface {
	ListLessonFacts(ctx context.Context, filter repository.LessonFactFilter) ([]model.LessonFact, error)
}

// DanceStore is the dance catalog.
type DanceStore interface {
	CreateDance(ctx context.Context, d *model.Dance) error
	GetDance(ctx context.Context, id string) (*model.Dance, error)
	SearchDances(ctx context.Context, query string, limit int) ([]model.Dance, error)
}

// Stores bundles every store a running service needs.
type Stores struct {
	Venues      VenueStore
	EventTypes  EventTypeStore
	Frequencies FrequencyStore
	Events      EventStore
	Facts       LessonFactStore
	Dances      DanceStore
}
