// Package repository implements all database queries for the lesson schedule.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would break a uniqueness rule.
var ErrConflict = errors.New("conflict")

// FrequencyFilter narrows ListFrequencies. Zero values match everything.
type FrequencyFilter struct {
	EventTypeID string
	ActiveOnly  bool
}

// LessonFactFilter narrows ListLessonFacts. From and To compare against the
// calendar date prefix of the taught-at timestamp; zero dates are open ends.
// Limit <= 0 means no limit.
type LessonFactFilter struct {
	EventID string
	From    wallclock.Date
	To      wallclock.Date
	Limit   int
}

// EventMutation edits a locked Event in place and returns the facts to
// append in the same atomic step. Returning an error discards all changes.
type EventMutation func(e *model.Event) ([]model.LessonFact, error)

const uniqueViolation = "23505"

// classify maps driver errors onto the package sentinels.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
