package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidOffset = errors.New("cycle start offset must be a non-negative integer")
)

// UnknownCycleTypeError reports a cycle type outside the catalog. It is a
// programming or config error, never an expected outcome of the UI flow.
type UnknownCycleTypeError struct {
	Type CycleType
}

func (e *UnknownCycleTypeError) Error() string {
	return fmt.Sprintf("unknown pay cycle type %q", string(e.Type))
}

// PayDayOutOfRangeError reports a pay day that is missing or outside the
// valid domain for the chosen cycle type.
type PayDayOutOfRangeError struct {
	Type  CycleType
	Day   *int
	Range PayDayRange
}

func (e *PayDayOutOfRangeError) Error() string {
	if e.Day == nil {
		return fmt.Sprintf("pay day is required for cycle type %q (valid range %d-%d)",
			string(e.Type), e.Range.Min, e.Range.Max)
	}
	return fmt.Sprintf("pay day %d out of range %d-%d for cycle type %q",
		*e.Day, e.Range.Min, e.Range.Max, string(e.Type))
}

// Settings is one user's pay-cycle configuration. PayDay is nil for types
// that take no pay day; its meaning depends on CycleType (day of month for
// custom_day, Sunday-first day of week for bi_weekly).
type Settings struct {
	CycleType        CycleType
	PayDay           *int
	CycleStartOffset int
	UpdatedAt        *time.Time
}

// DefaultSettings is the implicit configuration of a user who never saved
// one: calendar months, recommended offset.
func DefaultSettings() Settings {
	return Settings{CycleType: Calendar, CycleStartOffset: DefaultOffset}
}

// Validate checks a candidate configuration against the catalog and returns
// its normalized form: a pay day passed for a type that does not use one is
// cleared rather than rejected, matching the client which drops pay_day when
// the type changes. Pure; never touches storage.
func (s Settings) Validate() (Settings, error) {
	desc, ok := LookupType(s.CycleType)
	if !ok {
		return Settings{}, &UnknownCycleTypeError{Type: s.CycleType}
	}

	if s.CycleStartOffset < 0 {
		return Settings{}, ErrInvalidOffset
	}

	out := s
	if desc.RequiresPayDay {
		if s.PayDay == nil || !desc.PayDayRange.Contains(*s.PayDay) {
			return Settings{}, &PayDayOutOfRangeError{
				Type:  s.CycleType,
				Day:   s.PayDay,
				Range: *desc.PayDayRange,
			}
		}
		day := *s.PayDay
		out.PayDay = &day
	} else {
		out.PayDay = nil
	}

	return out, nil
}

// IntPtr is a convenience for building settings literals.
func IntPtr(v int) *int { return &v }
