package service

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/repository"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/wallclock"
)

var (
	// ErrIntegrity means a write reported success but the row could not be
	// read back. It points at a store inconsistency, not a caller mistake.
	ErrIntegrity = errors.New("integrity error")

	// ErrSuperseded is returned to a dance search whose session started a
	// newer search before this one finished.
	ErrSuperseded = errors.New("search superseded")
)

// isoWithOffset is the accepted commit timestamp: seconds optional, offset
// or Z mandatory.
var isoWithOffset = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?([+-]\d{2}:\d{2}|Z)$`)

// notFound wraps repository.ErrNotFound with the resource name so handlers
// can still match it with errors.Is.
func notFound(what string) error {
	return fmt.Errorf("%s %w", what, repository.ErrNotFound)
}

// fieldError builds a single-field validation failure.
func fieldError(field, msg string) error {
	return validation.Errors{field: validation.NewError("validation_"+field, msg)}
}

// timeRule accepts "H:MM AM|PM" strings; empty values are left to Required.
var timeRule = validation.By(func(value interface{}) error {
	s, ok := stringValue(value)
	if !ok || s == "" {
		return nil
	}
	if _, err := wallclock.ParseTime(s); err != nil {
		return errors.New("must be a time like 6:30 PM")
	}
	return nil
})

// dateRule accepts YYYY-MM-DD strings; empty values are left to Required.
var dateRule = validation.By(func(value interface{}) error {
	s, ok := stringValue(value)
	if !ok || s == "" {
		return nil
	}
	if _, err := wallclock.ParseDate(s); err != nil {
		return errors.New("must be a date in YYYY-MM-DD format")
	}
	return nil
})

func stringValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	}
	return "", false
}

func optionalDate(s *string) (*wallclock.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := wallclock.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
