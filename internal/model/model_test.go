package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

func TestFrequency_JSONFlattensRule(t *testing.T) {
	end := wallclock.MustDate("2025-06-30")
	f := Frequency{
		ID:              "f1",
		EventTypeID:     "et1",
		Rule:            recurrence.MonthlyNthRule{Weekday: time.Friday, Nth: 2},
		StartTime:       "7:00 PM",
		DurationMinutes: 120,
		EndDate:         &end,
		IsActive:        true,
	}
	b, err := json.Marshal(f)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "MONTHLY_NTH_WEEKDAY", raw["kind"])
	assert.Equal(t, "FR", raw["weekday"])
	assert.EqualValues(t, 2, raw["nth"])
	assert.NotContains(t, raw, "byDay")
	assert.Equal(t, "2025-06-30", raw["endDate"])
	assert.NotContains(t, raw, "startDate")

	var back Frequency
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, f.Rule, back.Rule)
	assert.Equal(t, end, *back.EndDate)
}

func TestFrequency_UnmarshalRejectsBadShape(t *testing.T) {
	var f Frequency
	err := json.Unmarshal([]byte(`{"id":"f1","kind":"WEEKLY","byDay":[]}`), &f)
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
}

func TestEvent_CloneDoesNotShareLessons(t *testing.T) {
	e := Event{Lessons: []LessonSlot{{ID: "a"}}}
	c := e.Clone()
	c.Lessons[0].Committed = true
	assert.False(t, e.Lessons[0].Committed)
	assert.Equal(t, 0, c.SlotIndex("a"))
	assert.Equal(t, -1, c.SlotIndex("b"))
}
