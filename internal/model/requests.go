package model

import (
	"encoding/json"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
)

// Optional distinguishes an absent JSON field from an explicit null. Set is
// true whenever the key was present.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// VenueRequest is the body of POST /venues and PUT /venues/{id}.
type VenueRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
}

// EventTypeRequest is the body of POST /event-types and PUT /event-types/{id}.
type EventTypeRequest struct {
	Title                  string `json:"title"`
	Level                  string `json:"level"`
	Price                  string `json:"price"`
	VenueID                string `json:"venueId"`
	DefaultStartTime       string `json:"defaultStartTime"`
	DefaultDurationMinutes int    `json:"defaultDurationMinutes"`
	IsActive               *bool  `json:"isActive"`
	EndDayOffset           *int   `json:"endDayOffset"`
}

// FrequencyRequest is the body of POST /frequencies and PUT
// /frequencies/{id}. Dates are YYYY-MM-DD strings so that a malformed one is
// reported against its field.
type FrequencyRequest struct {
	EventTypeID string `json:"eventTypeId"`
	recurrence.Fields
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	StartDate       *string `json:"startDate"`
	EndDate         *string `json:"endDate"`
	IsActive        *bool   `json:"isActive"`
}

// MaterializeRequest is the body of POST /events. Either DurationMinutes or
// EndTime may be given; with neither, the event type's default duration is
// used.
type MaterializeRequest struct {
	EventTypeID     string  `json:"eventTypeId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes *int    `json:"durationMinutes"`
	EndTime         *string `json:"endTime"`
	EndsNextDay     bool    `json:"endsNextDay"`
	EndDayOffset    *int    `json:"endDayOffset"`
	SeedSlots       int     `json:"seedSlots"`
}

// MaterializeResult reports the stored event and whether this call made it.
type MaterializeResult struct {
	EventID string `json:"eventId"`
	Created bool   `json:"created"`
	Event   *Event `json:"event,omitempty"`
}

// OneOffEventRequest is the body of POST /admin/one-off-events.
type OneOffEventRequest struct {
	EventTypeID string `json:"eventTypeId"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	EndsNextDay bool   `json:"endsNextDay"`
	SeedSlots   int    `json:"seedSlots"`
}

// LessonSlotInput is one slot in a PATCH body. ID ties it to an existing
// slot; Committed is accepted but ignored because the server owns it.
type LessonSlotInput struct {
	ID        *string `json:"id"`
	Time      *string `json:"time"`
	DanceID   *string `json:"danceId"`
	Dance     *string `json:"dance"`
	Level     *string `json:"level"`
	Link      *string `json:"link"`
	Committed *bool   `json:"committed"`
}

// EventPatch is the body of PATCH /events/{id}. Only present keys change.
type EventPatch struct {
	StartTime   *string                     `json:"startTime"`
	EndTime     *string                     `json:"endTime"`
	IsCancelled *bool                       `json:"isCancelled"`
	CancelNote  Optional[string]            `json:"cancelNote"`
	Substitute  Optional[string]            `json:"substitute"`
	Lessons     Optional[[]LessonSlotInput] `json:"lessons"`
}

// CommitAction is what happens to a due slot.
type CommitAction string

const (
	ActionTaught CommitAction = "TAUGHT"
	ActionClear  CommitAction = "CLEAR"
	ActionSkip   CommitAction = "SKIP"
)

// CommitRequest is the body of POST /admin/lesson-commit. The slot is
// addressed by LessonID, or by LessonIndex when no id is given.
type CommitRequest struct {
	EventID     string       `json:"eventId"`
	LessonID    string       `json:"lessonId"`
	LessonIndex *int         `json:"lessonIndex"`
	Action      CommitAction `json:"action"`
	CommitDate  string       `json:"commitDate"`
	DanceID     *string      `json:"danceId"`
}

// CommitResult is the reply to a single-slot commit.
type CommitResult struct {
	OK               bool        `json:"ok"`
	AlreadyCommitted bool        `json:"alreadyCommitted,omitempty"`
	Fact             *LessonFact `json:"fact,omitempty"`
}

// FinalizeMode says what a batch commit does to its source slot.
type FinalizeMode string

const (
	FinalizeNone         FinalizeMode = "NONE"
	FinalizeCommitSource FinalizeMode = "COMMIT_SOURCE"
	FinalizeClearSource  FinalizeMode = "CLEAR_SOURCE"
)

// BatchItem is one taught dance in a batch commit.
type BatchItem struct {
	CommitDate string  `json:"commitDate"`
	DanceID    *string `json:"danceId"`
	DanceName  *string `json:"danceName"`
}

// BatchCommitRequest is the body of POST /admin/lesson-commit-batch.
type BatchCommitRequest struct {
	EventID           string       `json:"eventId"`
	SourceLessonID    string       `json:"sourceLessonId"`
	SourceLessonIndex *int         `json:"sourceLessonIndex"`
	Finalize          FinalizeMode `json:"finalize"`
	Items             []BatchItem  `json:"items"`
}

// BatchCommitResult is the reply to a batch commit.
type BatchCommitResult struct {
	OK       bool `json:"ok"`
	Inserted int  `json:"inserted"`
}

// DanceRequest is the body of POST /dances.
type DanceRequest struct {
	Name       string  `json:"name"`
	Link       *string `json:"link"`
	Difficulty *string `json:"difficulty"`
}
