// Package schedule holds the pure scheduling logic: occurrence identity,
// the status rule, the virtual/persisted merge and the lesson due-set.
package schedule

import (
	"strings"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

const keySep = "|"

// Key identifies an occurrence: "eventTypeId|YYYY-MM-DD|startTime". A virtual
// occurrence and a persisted Event are the same occurrence iff their keys
// are equal. No normalization happens here; startTime must already be in
// codec form.
type Key string

// KeyOf builds the identity key for a triple.
func KeyOf(eventTypeID string, date wallclock.Date, startTime string) Key {
	return Key(eventTypeID + keySep + date.String() + keySep + startTime)
}

// EventKey is the identity key of a persisted Event.
func EventKey(e model.Event) Key {
	return KeyOf(e.EventTypeID, e.Date, e.StartTime)
}

// Split returns the three parts of k.
func (k Key) Split() (eventTypeID, date, startTime string, ok bool) {
	parts := strings.SplitN(string(k), keySep, 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func (k Key) String() string { return string(k) }
