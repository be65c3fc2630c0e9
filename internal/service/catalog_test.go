package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
)

func TestVenues(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.CreateVenue(f.ctx, model.VenueRequest{Name: "  "})
	assert.Contains(t, fieldErrors(t, err), "name")

	v, err := f.catalog.UpdateVenue(f.ctx, f.venue.ID, model.VenueRequest{Name: "Grange Hall East", City: strPtr("Boulder")})
	require.NoError(t, err)
	assert.Equal(t, "Grange Hall East", v.Name)
	assert.Equal(t, "Boulder", *v.City)

	_, err = f.catalog.UpdateVenue(f.ctx, "missing", model.VenueRequest{Name: "X"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEventTypes(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.CreateEventType(f.ctx, model.EventTypeRequest{
		Title:                  "Orphan",
		VenueID:                "missing",
		DefaultStartTime:       "7:00 PM",
		DefaultDurationMinutes: 60,
	})
	assert.Contains(t, fieldErrors(t, err), "venueId")

	_, err = f.catalog.CreateEventType(f.ctx, model.EventTypeRequest{
		VenueID:          f.venue.ID,
		DefaultStartTime: "7pm",
		EndDayOffset:     intPtr(2),
	})
	fields := fieldErrors(t, err)
	for _, k := range []string{"title", "defaultStartTime", "defaultDurationMinutes", "endDayOffset"} {
		assert.Contains(t, fields, k)
	}

	off := false
	updated, err := f.catalog.UpdateEventType(f.ctx, f.eventType.ID, model.EventTypeRequest{
		Title:                  "Wednesday Swing II",
		VenueID:                f.venue.ID,
		DefaultStartTime:       "07:30 pm",
		DefaultDurationMinutes: 90,
		IsActive:               &off,
	})
	require.NoError(t, err)
	assert.Equal(t, "7:30 PM", updated.DefaultStartTime)
	assert.False(t, updated.IsActive)

	active, err := f.catalog.ListEventTypes(f.ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	again, err := f.catalog.UpdateEventType(f.ctx, f.eventType.ID, model.EventTypeRequest{
		Title:                  "Wednesday Swing II",
		VenueID:                f.venue.ID,
		DefaultStartTime:       "7:30 PM",
		DefaultDurationMinutes: 90,
	})
	require.NoError(t, err)
	assert.False(t, again.IsActive, "omitted isActive keeps the stored value")
}

func TestFrequencies(t *testing.T) {
	f := newFixture(t)
	weekly := recurrence.Fields{Kind: recurrence.Weekly, ByDay: []string{"WE", "fr"}}

	_, err := f.catalog.CreateFrequency(f.ctx, model.FrequencyRequest{
		EventTypeID:     "missing",
		Fields:          weekly,
		StartTime:       "7:00 PM",
		DurationMinutes: 60,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.catalog.CreateFrequency(f.ctx, model.FrequencyRequest{
		EventTypeID:     f.eventType.ID,
		Fields:          recurrence.Fields{Kind: recurrence.MonthlyNthWeekday, Weekday: "TH", Nth: 6},
		StartTime:       "7:00 PM",
		DurationMinutes: 60,
	})
	assert.Contains(t, fieldErrors(t, err), "rule")

	_, err = f.catalog.CreateFrequency(f.ctx, model.FrequencyRequest{
		EventTypeID:     f.eventType.ID,
		Fields:          weekly,
		StartTime:       "7:00 PM",
		DurationMinutes: 60,
		StartDate:       strPtr("2024-03-01"),
		EndDate:         strPtr("2024-02-01"),
	})
	assert.Contains(t, fieldErrors(t, err), "endDate")

	freq, err := f.catalog.CreateFrequency(f.ctx, model.FrequencyRequest{
		EventTypeID:     f.eventType.ID,
		Fields:          weekly,
		StartTime:       "7:00 pm",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, freq.IsActive)
	assert.Equal(t, "7:00 PM", freq.StartTime)

	_, err = f.catalog.UpdateFrequency(f.ctx, freq.ID, model.FrequencyRequest{
		Fields:          recurrence.Fields{Kind: recurrence.MonthlyNthWeekday, Weekday: "TH", Nth: 2},
		StartTime:       "7:00 PM",
		DurationMinutes: 60,
	})
	assert.Contains(t, fieldErrors(t, err), "kind")

	updated, err := f.catalog.UpdateFrequency(f.ctx, freq.ID, model.FrequencyRequest{
		Fields:          recurrence.Fields{Kind: recurrence.Weekly, ByDay: []string{"TU"}},
		StartTime:       "6:00 PM",
		DurationMinutes: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, "6:00 PM", updated.StartTime)
	assert.Equal(t, recurrence.Weekly, updated.Rule.Kind())

	list, err := f.catalog.ListFrequencies(f.ctx, f.eventType.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.catalog.DeleteFrequency(f.ctx, freq.ID))
	assert.ErrorIs(t, f.catalog.DeleteFrequency(f.ctx, freq.ID), repository.ErrNotFound)
}
