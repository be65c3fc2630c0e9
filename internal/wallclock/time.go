// Package wallclock handles the wall-clock values the schedule is built on:
// 12-hour time-of-day strings ("6:30 PM"), calendar dates without a zone,
// and "now" evaluated in the business's fixed local zone.
package wallclock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinutesPerDay is the length of a wall-clock day.
const MinutesPerDay = 24 * 60

// ErrInvalidTime is returned for any string that is not a valid "H:MM AM|PM".
var ErrInvalidTime = errors.New("invalid time, expected H:MM AM|PM")

// ErrInvalidDuration is returned when a duration is zero, negative, or
// cannot be derived from the given start and end.
var ErrInvalidDuration = errors.New("invalid duration")

var timePattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// ParseTime converts a 12-hour time string into minutes since midnight.
// 12 AM is 0 and 12 PM is 720.
func ParseTime(s string) (int, error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh < 1 || hh > 12 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if hh == 12 {
		hh = 0
	}
	if strings.EqualFold(m[3], "PM") {
		hh += 12
	}
	return hh*60 + mm, nil
}

// FormatTime renders minutes since midnight as "H:MM AM|PM". Values outside
// one day wrap, so -30 formats as "11:30 PM".
func FormatTime(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	h24, mm := minutes/60, minutes%60
	meridiem := "AM"
	if h24 >= 12 {
		meridiem = "PM"
	}
	h12 := h24 % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, mm, meridiem)
}

// NormalizeTime parses and re-formats s, so "06:30pm" becomes "6:30 PM".
func NormalizeTime(s string) (string, error) {
	m, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return FormatTime(m), nil
}

// AddDuration returns the time durationMinutes after start. The result wraps
// past midnight; callers track the day change separately.
func AddDuration(start string, durationMinutes int) (string, error) {
	m, err := ParseTime(start)
	if err != nil {
		return "", err
	}
	if durationMinutes <= 0 {
		return "", fmt.Errorf("%w: %d minutes", ErrInvalidDuration, durationMinutes)
	}
	return FormatTime(m + durationMinutes), nil
}

// ComputeDuration returns the minutes between start and end on the same day.
// It fails when end is not after start.
func ComputeDuration(start, end string) (int, error) {
	s, e, err := parsePair(start, end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("%w: %s is not after %s", ErrInvalidDuration, end, start)
	}
	return e - s, nil
}

// OvernightDuration returns the minutes from start to end when end falls on
// the following day.
func OvernightDuration(start, end string) (int, error) {
	s, e, err := parsePair(start, end)
	if err != nil {
		return 0, err
	}
	d := (e + MinutesPerDay) - s
	if d <= 0 || d > MinutesPerDay {
		return 0, fmt.Errorf("%w: %s to %s next day", ErrInvalidDuration, start, end)
	}
	return d, nil
}

func parsePair(start, end string) (int, int, error) {
	s, err := ParseTime(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := ParseTime(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}
