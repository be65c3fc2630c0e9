package model

import "github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"

// Status is the planning state of an occurrence.
type Status string

const (
	StatusUnplanned Status = "UNPLANNED"
	StatusPlanned   Status = "PLANNED"
	StatusCancelled Status = "CANCELLED"
)

// SuggestedAction is an advisory hint for the commit UI.
type SuggestedAction string

const (
	SuggestNone SuggestedAction = "NONE"
	SuggestSkip SuggestedAction = "SKIP_SUGGESTED"
)

// EventTypeSummary is the denormalized slice of an EventType carried on views.
type EventTypeSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Level   string `json:"level"`
	Price   string `json:"price"`
	VenueID string `json:"venueId,omitempty"`
}

// Summary denormalizes t.
func (t EventType) Summary() *EventTypeSummary {
	return &EventTypeSummary{ID: t.ID, Title: t.Title, Level: t.Level, Price: t.Price, VenueID: t.VenueID}
}

// Occurrence is one dated instance of an event type, whether or not an
// Event backs it yet.
type Occurrence struct {
	Key             string            `json:"key"`
	EventID         *string           `json:"eventId,omitempty"`
	EventTypeID     string            `json:"eventTypeId"`
	FrequencyID     *string           `json:"frequencyId,omitempty"`
	Date            wallclock.Date    `json:"date"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	DurationMinutes int               `json:"durationMinutes"`
	EndDayOffset    int               `json:"endDayOffset"`
	Status          Status            `json:"status"`
	IsCancelled     bool              `json:"isCancelled"`
	CancelNote      *string           `json:"cancelNote,omitempty"`
	Substitute      *string           `json:"substitute,omitempty"`
	Lessons         []LessonSlot      `json:"lessons"`
	EventType       *EventTypeSummary `json:"eventType,omitempty"`
	Venue           *Venue            `json:"venue,omitempty"`
}

// EventDetail is an Event joined with its type and venue.
type EventDetail struct {
	Event
	EventType *EventTypeSummary `json:"eventType,omitempty"`
	Venue     *Venue            `json:"venue,omitempty"`
}

// DueLesson is one past-due, uncommitted lesson slot awaiting reconciliation.
type DueLesson struct {
	EventID          string          `json:"eventId"`
	EventTypeTitle   string          `json:"eventTypeTitle"`
	VenueName        string          `json:"venueName"`
	LessonDate       wallclock.Date  `json:"lessonDate"`
	LessonTime       string          `json:"lessonTime"`
	LessonID         string          `json:"lessonId"`
	LessonIndex      int             `json:"lessonIndex"`
	PlannedDanceID   *string         `json:"plannedDanceId"`
	PlannedDanceName *string         `json:"plannedDanceName"`
	Level            *string         `json:"level"`
	Link             *string         `json:"link"`
	SuggestedAction  SuggestedAction `json:"suggestedAction"`
}
