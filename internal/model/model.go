// Package model defines the domain types shared across all layers.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// UnknownVenue is the display name used when an event's venue cannot be resolved.
const UnknownVenue = "Unknown venue"

// Venue is a place where classes are held.
type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	State     *string   `json:"state,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventType is a class series. Inactive types are one-off or special events
// and never produce recurring occurrences.
type EventType struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	Level                  string    `json:"level"`
	Price                  string    `json:"price"`
	VenueID                string    `json:"venueId"`
	DefaultStartTime       string    `json:"defaultStartTime"`
	DefaultDurationMinutes int       `json:"defaultDurationMinutes"`
	IsActive               bool      `json:"isActive"`
	EndDayOffset           *int      `json:"endDayOffset,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
}

// Frequency is a recurrence rule owned by an EventType.
type Frequency struct {
	ID              string
	EventTypeID     string
	Rule            recurrence.Rule
	StartTime       string
	DurationMinutes int
	StartDate       *wallclock.Date
	EndDate         *wallclock.Date
	IsActive        bool
	CreatedAt       time.Time
}

// Bounds returns the dates the rule is active between.
func (f Frequency) Bounds() recurrence.Bounds {
	return recurrence.Bounds{Start: f.StartDate, End: f.EndDate}
}

type frequencyJSON struct {
	ID          string `json:"id"`
	EventTypeID string `json:"eventTypeId"`
	recurrence.Fields
	StartTime       string          `json:"startTime"`
	DurationMinutes int             `json:"durationMinutes"`
	StartDate       *wallclock.Date `json:"startDate,omitempty"`
	EndDate         *wallclock.Date `json:"endDate,omitempty"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// MarshalJSON flattens the rule into kind/byDay/weekday/nth.
func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(frequencyJSON{
		ID:              f.ID,
		EventTypeID:     f.EventTypeID,
		Fields:          recurrence.FieldsOf(f.Rule),
		StartTime:       f.StartTime,
		DurationMinutes: f.DurationMinutes,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		IsActive:        f.IsActive,
		CreatedAt:       f.CreatedAt,
	})
}

func (f *Frequency) UnmarshalJSON(b []byte) error {
	var raw frequencyJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rule, err := raw.Fields.Rule()
	if err != nil {
		return fmt.Errorf("frequency %s: %w", raw.ID, err)
	}
	*f = Frequency{
		ID:              raw.ID,
		EventTypeID:     raw.EventTypeID,
		Rule:            rule,
		StartTime:       raw.StartTime,
		DurationMinutes: raw.DurationMinutes,
		StartDate:       raw.StartDate,
		EndDate:         raw.EndDate,
		IsActive:        raw.IsActive,
		CreatedAt:       raw.CreatedAt,
	}
	return nil
}

// LessonSlot is one planned lesson inside an Event. ID is stable for the
// life of the slot; position in Event.Lessons is display order only.
type LessonSlot struct {
	ID        string  `json:"id"`
	Time      *string `json:"time"`
	DanceID   *string `json:"danceId"`
	Dance     *string `json:"dance"`
	Level     *string `json:"level"`
	Link      *string `json:"link"`
	Committed bool    `json:"committed"`
}

// DanceName returns the planned dance name, or "".
func (l LessonSlot) DanceName() string {
	if l.Dance == nil {
		return ""
	}
	return *l.Dance
}

// ClearPlan erases the planned dance without touching time or committed.
func (l *LessonSlot) ClearPlan() {
	l.DanceID, l.Dance, l.Level, l.Link = nil, nil, nil, nil
}

// Event is a persisted occurrence. (EventTypeID, Date, StartTime) is unique.
type Event struct {
	ID              string         `json:"id"`
	EventTypeID     string         `json:"eventTypeId"`
	Date            wallclock.Date `json:"date"`
	StartTime       string         `json:"startTime"`
	EndTime         string         `json:"endTime"`
	DurationMinutes int            `json:"durationMinutes"`
	EndDayOffset    int            `json:"endDayOffset"`
	IsCancelled     bool           `json:"isCancelled"`
	CancelNote      *string        `json:"cancelNote"`
	Substitute      *string        `json:"substitute"`
	Lessons         []LessonSlot   `json:"lessons"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Clone returns a copy whose Lessons slice is not shared with e.
func (e Event) Clone() Event {
	if e.Lessons != nil {
		e.Lessons = append([]LessonSlot(nil), e.Lessons...)
	}
	return e
}

// SlotIndex returns the position of the slot with the given id, or -1.
func (e Event) SlotIndex(id string) int {
	for i, l := range e.Lessons {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// LessonFact records a dance that was actually taught. Exactly one of
// DanceID and DanceName is set. TaughtAt keeps the caller's ISO-8601 text
// with its offset.
type LessonFact struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	LessonID  string    `json:"lessonId"`
	DanceID   *string   `json:"danceId,omitempty"`
	DanceName *string   `json:"danceName,omitempty"`
	Venue     string    `json:"venue"`
	TaughtAt  string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// Dance is a catalog entry that lesson slots reference.
type Dance struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Link       *string `json:"link,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
}

// ErrorResponse is the JSON body for every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}
