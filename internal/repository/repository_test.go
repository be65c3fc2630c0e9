package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/recurrence"
)

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify("get", pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, classify("insert", &pgconn.PgError{Code: "23505"}), ErrConflict)

	other := errors.New("boom")
	err := classify("insert", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "insert: boom")
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, likeEscaper.Replace(`50% off_now\`))
	assert.Equal(t, "waltz", likeEscaper.Replace("waltz"))
}

func TestFrequencyArgs_OnlyOneBranchPopulated(t *testing.T) {
	kind, byDay, weekday, nth := frequencyArgs(&model.Frequency{
		Rule: recurrence.WeeklyRule{Days: []time.Weekday{time.Monday, time.Thursday}},
	})
	assert.Equal(t, "WEEKLY", kind)
	assert.Equal(t, []string{"MO", "TH"}, byDay)
	assert.Nil(t, weekday)
	assert.Nil(t, nth)

	kind, byDay, weekday, nth = frequencyArgs(&model.Frequency{
		Rule: recurrence.MonthlyNthRule{Weekday: time.Saturday, Nth: 1},
	})
	assert.Equal(t, "MONTHLY_NTH_WEEKDAY", kind)
	assert.Nil(t, byDay)
	assert.Equal(t, "SA", *weekday)
	assert.Equal(t, 1, *nth)
}
