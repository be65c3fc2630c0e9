package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

func newOccurrenceFixture(t *testing.T) (*fixture, *OccurrenceService) {
	t.Helper()
	f := newFixture(t)
	_, err := f.catalog.CreateFrequency(f.ctx, model.FrequencyRequest{
		EventTypeID:     f.eventType.ID,
		Fields:          recurrence.Fields{Kind: recurrence.Weekly, ByDay: []string{"WE"}},
		StartTime:       "7:00 PM",
		DurationMinutes: 120,
	})
	require.NoError(t, err)
	svc := NewOccurrenceService(f.stores, f.loc, 92, wallclock.FixedClock{T: wednesdayNight}, nil)
	return f, svc
}

func TestOccurrences_WeeklyRuleOverlaysEvents(t *testing.T) {
	f, svc := newOccurrenceFixture(t)
	q := OccurrenceQuery{From: "2024-01-01", To: "2024-01-28"}

	occs, err := svc.List(f.ctx, q)
	require.NoError(t, err)
	require.Len(t, occs, 4)
	for i, day := range []string{"2024-01-03", "2024-01-10", "2024-01-17", "2024-01-24"} {
		assert.Equal(t, day, occs[i].Date.String())
		assert.Equal(t, model.StatusUnplanned, occs[i].Status)
		assert.Nil(t, occs[i].EventID)
		assert.Equal(t, "9:00 PM", occs[i].EndTime)
		assert.Equal(t, "Grange Hall", occs[i].Venue.Name)
	}

	e := f.materialize(t, "2024-01-10", "7:00 PM", 0)
	f.plan(t, e.ID, model.LessonSlot{ID: "s1", Time: strPtr("7:00 PM"), Dance: strPtr("Waltz")})

	occs, err = svc.List(f.ctx, q)
	require.NoError(t, err)
	require.Len(t, occs, 4, "a materialized occurrence is not listed twice")
	require.NotNil(t, occs[1].EventID)
	assert.Equal(t, e.ID, *occs[1].EventID)
	assert.Equal(t, model.StatusPlanned, occs[1].Status)

	q.OnlyUnplanned = true
	occs, err = svc.List(f.ctx, q)
	require.NoError(t, err)
	assert.Len(t, occs, 3)
}

func TestOccurrences_OneOffEventsOnRequest(t *testing.T) {
	f, svc := newOccurrenceFixture(t)
	f.materialize(t, "2024-01-12", "8:00 PM", 0)

	occs, err := svc.List(f.ctx, OccurrenceQuery{From: "2024-01-08", To: "2024-01-14"})
	require.NoError(t, err)
	assert.Len(t, occs, 1)

	occs, err = svc.List(f.ctx, OccurrenceQuery{From: "2024-01-08", To: "2024-01-14", IncludeOneOff: true})
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, "2024-01-12", occs[1].Date.String())
}

func TestParseWindow(t *testing.T) {
	_, err := ParseWindow("", "2024-01-01", 92)
	assert.Contains(t, fieldErrors(t, err), "from")

	_, err = ParseWindow("2024-02-01", "2024-01-01", 92)
	assert.Contains(t, fieldErrors(t, err), "to")

	_, err = ParseWindow("2024-01-01", "2024-12-31", 92)
	assert.Contains(t, fieldErrors(t, err), "to")

	w, err := ParseWindow("2024-01-01", "2024-01-01", 92)
	require.NoError(t, err)
	assert.Equal(t, w.From, w.To)
}

func TestOccurrences_Calendar(t *testing.T) {
	f, svc := newOccurrenceFixture(t)

	ics, err := svc.Calendar(f.ctx, OccurrenceQuery{From: "2024-01-01", To: "2024-01-14"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "Wednesday Swing")
}
