package wallclock

import (
	"fmt"
	"time"

	// Embedded zone database so the business zone resolves on any host.
	_ "time/tzdata"
)

// DefaultZone is the business's local zone.
const DefaultZone = "America/Denver"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Moment is a wall-clock date plus minutes since midnight in a given zone.
type Moment struct {
	Date    Date
	Minutes int
}

// At converts t to the wall clock of loc.
func At(t time.Time, loc *time.Location) Moment {
	local := t.In(loc)
	return Moment{
		Date:    DateOf(local),
		Minutes: local.Hour()*60 + local.Minute(),
	}
}

// NotAfter reports whether the wall-clock point (date, minutes) is at or
// before m.
func (m Moment) NotAfter(date Date, minutes int) bool {
	switch date.Compare(m.Date) {
	case -1:
		return true
	case 0:
		return minutes <= m.Minutes
	default:
		return false
	}
}

// LoadZone resolves an IANA zone name, defaulting to DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// InstantOf places a date and minutes since midnight in loc.
func InstantOf(d Date, minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), minutes/60, minutes%60, 0, 0, loc)
}
