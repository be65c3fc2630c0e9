package calendar

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

func strPtr(s string) *string { return &s }

func TestRender(t *testing.T) {
	denver, err := wallclock.LoadZone("America/Denver")
	require.NoError(t, err)

	venue := &model.Venue{ID: "v1", Name: "Grange Hall"}
	occs := []model.Occurrence{
		{
			Key:             "et1|2024-01-03|6:00 PM",
			Date:            wallclock.MustDate("2024-01-03"),
			StartTime:       "6:00 PM",
			EndTime:         "7:00 PM",
			DurationMinutes: 60,
			Status:          model.StatusPlanned,
			EventType:       &model.EventTypeSummary{ID: "et1", Title: "Wednesday Social"},
			Venue:           venue,
			Lessons: []model.LessonSlot{
				{ID: "s1", Time: strPtr("6:00 PM"), Dance: strPtr("Waltz")},
			},
		},
		{
			Key:         "et1|2024-01-10|6:00 PM",
			Date:        wallclock.MustDate("2024-01-10"),
			StartTime:   "6:00 PM",
			EndTime:     "7:00 PM",
			Status:      model.StatusCancelled,
			IsCancelled: true,
			CancelNote:  strPtr("Snow"),
			EventType:   &model.EventTypeSummary{ID: "et1", Title: "Wednesday Social"},
		},
		{
			Key:          "et2|2024-01-12|10:00 PM",
			Date:         wallclock.MustDate("2024-01-12"),
			StartTime:    "10:00 PM",
			EndTime:      "1:00 AM",
			EndDayOffset: 1,
			Status:       model.StatusUnplanned,
		},
		{Key: "bad", StartTime: "noon"},
	}

	out := Render(occs, Options{
		Name:     "Lessons",
		Location: denver,
		Stamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3, "occurrences with unparseable times are left out")

	first := events[0]
	assert.Equal(t, "et1|2024-01-03|6:00 PM", first.GetProperty(ical.ComponentPropertyUniqueId).Value)
	assert.Equal(t, "Wednesday Social", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Grange Hall", first.GetProperty(ical.ComponentPropertyLocation).Value)
	start, err := first.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 1, 4, 1, 0, 0, 0, time.UTC)), "6 PM MST is 01:00 UTC")

	cancelled := events[1]
	assert.Equal(t, "CANCELLED", cancelled.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Equal(t, "CANCELLED: Wednesday Social", cancelled.GetProperty(ical.ComponentPropertySummary).Value)

	overnight := events[2]
	s, err := overnight.GetStartAt()
	require.NoError(t, err)
	e, err := overnight.GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, e.Sub(s))
}

func TestDescription(t *testing.T) {
	o := model.Occurrence{
		Substitute: strPtr("Pat"),
		Lessons: []model.LessonSlot{
			{Time: strPtr("6:00 PM"), Dance: strPtr("Waltz")},
			{Dance: strPtr("  ")},
			{Dance: strPtr("Two Step")},
		},
	}
	assert.Equal(t, "Substitute: Pat\n6:00 PM Waltz\nTwo Step", description(o))
}
