package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

func strPtr(s string) *string { return &s }

func date(s string) wallclock.Date { return wallclock.MustDate(s) }

func setupTestCatalog() Catalog {
	return Catalog{
		Venues: []model.Venue{{ID: "v1", Name: "Grange Hall"}},
		EventTypes: []model.EventType{
			{ID: "et1", Title: "Wednesday Westie", VenueID: "v1", DefaultStartTime: "6:00 PM", DefaultDurationMinutes: 60, IsActive: true},
			{ID: "et2", Title: "Special", VenueID: "v1", IsActive: false},
		},
		Frequencies: []model.Frequency{{
			ID:              "f1",
			EventTypeID:     "et1",
			Rule:            recurrence.WeeklyRule{Days: []time.Weekday{time.Wednesday}},
			StartTime:       "6:00 PM",
			DurationMinutes: 60,
			IsActive:        true,
		}},
	}
}

func TestKeyOf_CollisionsAndNonCollisions(t *testing.T) {
	a := KeyOf("et1", date("2024-05-01"), "6:00 PM")
	assert.Equal(t, Key("et1|2024-05-01|6:00 PM"), a)
	assert.Equal(t, a, EventKey(model.Event{EventTypeID: "et1", Date: date("2024-05-01"), StartTime: "6:00 PM"}))

	assert.NotEqual(t, a, KeyOf("et2", date("2024-05-01"), "6:00 PM"))
	assert.NotEqual(t, a, KeyOf("et1", date("2024-05-02"), "6:00 PM"))
	assert.NotEqual(t, a, KeyOf("et1", date("2024-05-01"), "6:30 PM"))
	// The key is literal: an unnormalized time is a different occurrence.
	assert.NotEqual(t, a, KeyOf("et1", date("2024-05-01"), "06:00 PM"))

	id, d, st, ok := a.Split()
	require.True(t, ok)
	assert.Equal(t, []string{"et1", "2024-05-01", "6:00 PM"}, []string{id, d, st})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, model.StatusUnplanned, StatusOf(nil))
	assert.Equal(t, model.StatusCancelled, StatusOf(&model.Event{
		IsCancelled: true,
		Lessons:     []model.LessonSlot{{Dance: strPtr("")}},
	}))
	assert.Equal(t, model.StatusUnplanned, StatusOf(&model.Event{Lessons: []model.LessonSlot{}}))
	assert.Equal(t, model.StatusPlanned, StatusOf(&model.Event{Lessons: []model.LessonSlot{{Dance: strPtr("Waltz")}}}))
	assert.Equal(t, model.StatusUnplanned, StatusOf(&model.Event{Lessons: []model.LessonSlot{
		{Dance: strPtr("Waltz")},
		{Dance: strPtr("   ")},
	}}))
	assert.Equal(t, model.StatusUnplanned, StatusOf(&model.Event{Lessons: []model.LessonSlot{{Dance: nil}}}))
}

func TestMerge_FourWednesdaysAllUnplanned(t *testing.T) {
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-28")}
	got, err := Merge(w, setupTestCatalog(), nil, MergeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, o := range got {
		assert.Equal(t, model.StatusUnplanned, o.Status)
		assert.Equal(t, "7:00 PM", o.EndTime)
		assert.Nil(t, o.EventID)
		assert.Equal(t, "Grange Hall", o.Venue.Name)
		assert.Equal(t, time.Wednesday, o.Date.Weekday())
	}
	assert.Equal(t, "2024-05-01", got[0].Date.String())
	assert.Equal(t, "2024-05-22", got[3].Date.String())
}

func TestMerge_PersistedEventWins(t *testing.T) {
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-14")}
	events := []model.Event{{
		ID:          "ev1",
		EventTypeID: "et1",
		Date:        date("2024-05-08"),
		StartTime:   "6:00 PM",
		EndTime:     "7:30 PM",
		Substitute:  strPtr("Sam"),
		Lessons:     []model.LessonSlot{{ID: "l1", Dance: strPtr("Cha Cha")}},
	}}
	got, err := Merge(w, setupTestCatalog(), events, MergeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].EventID)
	require.NotNil(t, got[1].EventID)
	assert.Equal(t, "ev1", *got[1].EventID)
	assert.Equal(t, "7:30 PM", got[1].EndTime)
	assert.Equal(t, "Sam", *got[1].Substitute)
	assert.Equal(t, model.StatusPlanned, got[1].Status)
}

func TestMerge_OnlyUnplannedAndOneOff(t *testing.T) {
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-14")}
	events := []model.Event{
		{ID: "ev1", EventTypeID: "et1", Date: date("2024-05-08"), StartTime: "6:00 PM", IsCancelled: true},
		{ID: "ev2", EventTypeID: "et2", Date: date("2024-05-03"), StartTime: "8:00 PM", EndTime: "11:00 PM"},
		{ID: "ev3", EventTypeID: "et2", Date: date("2024-06-03"), StartTime: "8:00 PM"},
	}

	got, err := Merge(w, setupTestCatalog(), events, MergeOptions{OnlyUnplanned: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-05-01", got[0].Date.String())

	got, err = Merge(w, setupTestCatalog(), events, MergeOptions{IncludeOneOff: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-05-03", got[1].Date.String())
	assert.Equal(t, "Special", got[1].EventType.Title)
	assert.Equal(t, model.StatusCancelled, got[2].Status)
}

func TestMerge_InactiveSkippedAndDuplicatesCollapsed(t *testing.T) {
	cat := setupTestCatalog()
	dup := cat.Frequencies[0]
	dup.ID = "f2"
	cat.Frequencies = append(cat.Frequencies, dup, model.Frequency{
		ID:              "f3",
		EventTypeID:     "et2",
		Rule:            recurrence.WeeklyRule{Days: []time.Weekday{time.Friday}},
		StartTime:       "8:00 PM",
		DurationMinutes: 60,
		IsActive:        true,
	})
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-07")}
	got, err := Merge(w, cat, nil, MergeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f1", *got[0].FrequencyID)
}

func TestMerge_BadFrequencyReportedButOthersReturned(t *testing.T) {
	cat := setupTestCatalog()
	cat.Frequencies = append(cat.Frequencies, model.Frequency{
		ID: "bad", EventTypeID: "et1", Rule: recurrence.WeeklyRule{Days: []time.Weekday{time.Friday}},
		StartTime: "25:00", DurationMinutes: 60, IsActive: true,
	})
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-07")}
	got, err := Merge(w, cat, nil, MergeOptions{})
	assert.ErrorIs(t, err, wallclock.ErrInvalidTime)
	assert.Len(t, got, 1)
}

func TestMerge_SortsByDateThenStartTime(t *testing.T) {
	cat := setupTestCatalog()
	cat.Frequencies = append(cat.Frequencies, model.Frequency{
		ID: "f9", EventTypeID: "et1", Rule: recurrence.WeeklyRule{Days: []time.Weekday{time.Wednesday}},
		StartTime: "10:00 AM", DurationMinutes: 45, IsActive: true,
	})
	w := recurrence.Window{From: date("2024-05-01"), To: date("2024-05-01")}
	got, err := Merge(w, cat, nil, MergeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10:00 AM", got[0].StartTime)
	assert.Equal(t, "6:00 PM", got[1].StartTime)
}

func TestSuggestedAction(t *testing.T) {
	assert.Equal(t, model.SuggestSkip, SuggestedAction("Partner Lessons"))
	assert.Equal(t, model.SuggestSkip, SuggestedAction("  partner dancing "))
	assert.Equal(t, model.SuggestSkip, SuggestedAction("PARTNER LESSON"))
	assert.Equal(t, model.SuggestNone, SuggestedAction("Partner Lesson Waltz"))
	assert.Equal(t, model.SuggestNone, SuggestedAction(""))
}

func TestDueSlots(t *testing.T) {
	now := wallclock.Moment{Date: date("2024-05-10"), Minutes: 20 * 60}
	events := []model.Event{
		{
			ID: "late", Date: date("2024-05-09"), StartTime: "9:00 PM", EndDayOffset: 1,
			Lessons: []model.LessonSlot{
				{ID: "a", Time: strPtr("9:30 PM")},
				{ID: "b", Time: strPtr("12:30 AM")}, // rolls to 2024-05-10
				{ID: "c", Time: strPtr("9:45 PM"), Committed: true},
			},
		},
		{
			ID: "today", Date: date("2024-05-10"), StartTime: "7:00 PM",
			Lessons: []model.LessonSlot{
				{ID: "d", Time: strPtr("8:00 PM")},
				{ID: "e", Time: strPtr("8:01 PM")},
				{ID: "f", Time: nil},
				{ID: "g", Time: strPtr("soon")},
			},
		},
		{
			ID: "cancelled", Date: date("2024-05-01"), StartTime: "7:00 PM", IsCancelled: true,
			Lessons: []model.LessonSlot{{ID: "h", Time: strPtr("7:00 PM")}},
		},
	}

	due := DueSlots(events, now)
	var ids []string
	for _, d := range due {
		ids = append(ids, d.Slot.ID)
	}
	assert.Equal(t, []string{"a", "b", "d"}, ids)
	assert.Equal(t, "2024-05-10", due[1].Date.String())
	assert.Equal(t, 1, due[1].Index)
}

func TestLessonDate_NoOffsetKeepsDate(t *testing.T) {
	e := model.Event{Date: date("2024-05-09"), StartTime: "9:00 PM"}
	assert.Equal(t, date("2024-05-09"), LessonDate(e, 30))
}
