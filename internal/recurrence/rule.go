// Package recurrence models the two recurrence shapes a class series can
// have and expands them into calendar dates.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind names a recurrence shape.
type Kind string

const (
	Weekly            Kind = "WEEKLY"
	MonthlyNthWeekday Kind = "MONTHLY_NTH_WEEKDAY"
)

// ErrInvalidRule is wrapped by every rule validation failure.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Rule is a closed sum type: WeeklyRule or MonthlyNthRule.
type Rule interface {
	Kind() Kind
	Validate() error
	isRule()
}

// WeeklyRule fires on every listed weekday.
type WeeklyRule struct {
	Days []time.Weekday
}

func (WeeklyRule) Kind() Kind { return Weekly }

func (WeeklyRule) isRule() {}

func (r WeeklyRule) Validate() error {
	if len(r.Days) == 0 {
		return fmt.Errorf("%w: byDay must not be empty", ErrInvalidRule)
	}
	for _, d := range r.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, d)
		}
	}
	return nil
}

// MonthlyNthRule fires on the Nth given weekday of each month. Months
// without an Nth such weekday are skipped.
type MonthlyNthRule struct {
	Weekday time.Weekday
	Nth     int
}

func (MonthlyNthRule) Kind() Kind { return MonthlyNthWeekday }

func (MonthlyNthRule) isRule() {}

func (r MonthlyNthRule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, r.Weekday)
	}
	if r.Nth < 1 || r.Nth > 5 {
		return fmt.Errorf("%w: nth must be between 1 and 5", ErrInvalidRule)
	}
	return nil
}

var dayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// DayCode returns the two-letter code for a weekday ("MO").
func DayCode(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return dayCodes[d]
}

// ParseDay parses a two-letter weekday code, case-insensitively.
func ParseDay(code string) (time.Weekday, error) {
	i := slices.Index(dayCodes[:], strings.ToUpper(strings.TrimSpace(code)))
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidRule, code)
	}
	return time.Weekday(i), nil
}

// Fields is the flat storage and wire shape of a Rule: the kind plus
// whichever branch fields belong to it.
type Fields struct {
	Kind    Kind     `json:"kind" yaml:"kind"`
	ByDay   []string `json:"byDay,omitempty" yaml:"byDay,omitempty"`
	Weekday string   `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	Nth     int      `json:"nth,omitempty" yaml:"nth,omitempty"`
}

// Rule converts the flat shape into a validated Rule. Values that belong to
// the other branch must be empty.
func (s Fields) Rule() (Rule, error) {
	switch s.Kind {
	case Weekly:
		if s.Weekday != "" || s.Nth != 0 {
			return nil, fmt.Errorf("%w: weekday and nth are not allowed for %s", ErrInvalidRule, Weekly)
		}
		r := WeeklyRule{}
		for _, code := range s.ByDay {
			d, err := ParseDay(code)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(r.Days, d) {
				r.Days = append(r.Days, d)
			}
		}
		slices.Sort(r.Days)
		return r, r.Validate()
	case MonthlyNthWeekday:
		if len(s.ByDay) != 0 {
			return nil, fmt.Errorf("%w: byDay is not allowed for %s", ErrInvalidRule, MonthlyNthWeekday)
		}
		d, err := ParseDay(s.Weekday)
		if err != nil {
			return nil, err
		}
		r := MonthlyNthRule{Weekday: d, Nth: s.Nth}
		return r, r.Validate()
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, s.Kind)
	}
}

// FieldsOf flattens a Rule.
func FieldsOf(r Rule) Fields {
	switch r := r.(type) {
	case WeeklyRule:
		days := make([]string, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, DayCode(d))
		}
		return Fields{Kind: Weekly, ByDay: days}
	case MonthlyNthRule:
		return Fields{Kind: MonthlyNthWeekday, Weekday: DayCode(r.Weekday), Nth: r.Nth}
	default:
		return Fields{}
	}
}
