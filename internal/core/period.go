package core

import (
	"fmt"
	"time"
)

// Period is one financial period as a half-open date interval: Start is the
// first day of the period, End the first day of the next one. Both are
// midnight UTC.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && d.Before(p.End)
}

// DateOf truncates t to midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BoundaryCalculator computes the period containing a reference date for one
// cycle type. Anchor rolling and offset handling differ per type, so each
// gets its own strategy.
type BoundaryCalculator interface {
	PeriodFor(s Settings, ref time.Time) Period
}

type calendarCalculator struct{}

func (calendarCalculator) PeriodFor(_ Settings, ref time.Time) Period {
	y, m, _ := ref.UTC().Date()
	return Period{
		Start: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type customDayCalculator struct{}

func (customDayCalculator) PeriodFor(s Settings, ref time.Time) Period {
	day := 1
	if s.PayDay != nil {
		day = *s.PayDay
	}
	anchor := func(y int, m time.Month) time.Time {
		d := day
		if last := daysInMonth(y, m); d > last {
			d = last
		}
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, s.CycleStartOffset)
	}
	return rollMonthly(anchor, ref)
}

type lastWeekdayCalculator struct{}

func (lastWeekdayCalculator) PeriodFor(s Settings, ref time.Time) Period {
	anchor := func(y int, m time.Month) time.Time {
		d := time.Date(y, m, daysInMonth(y, m), 0, 0, 0, 0, time.UTC)
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
		return d.AddDate(0, 0, s.CycleStartOffset)
	}
	return rollMonthly(anchor, ref)
}

// biWeeklyEpoch is the Sunday anchoring all bi-weekly schedules. Periods for
// weekday w start at epoch+w plus a whole number of 14-day steps, so two
// users with the same settings always land on the same boundaries.
var biWeeklyEpoch = time.Date(2021, time.January, 3, 0, 0, 0, 0, time.UTC)

type biWeeklyCalculator struct{}

func (biWeeklyCalculator) PeriodFor(s Settings, ref time.Time) Period {
	weekday := 0
	if s.PayDay != nil {
		weekday = *s.PayDay
	}
	base := biWeeklyEpoch.AddDate(0, 0, weekday+s.CycleStartOffset)
	d := DateOf(ref)
	days := int(d.Sub(base).Hours() / 24)
	steps := days / 14
	if days < 0 && days%14 != 0 {
		steps--
	}
	start := base.AddDate(0, 0, steps*14)
	return Period{Start: start, End: start.AddDate(0, 0, 14)}
}

// rollMonthly picks the monthly anchor whose period contains ref. The
// offset can push an anchor past its own month end, so the roll-back is a
// loop rather than a single step.
func rollMonthly(anchor func(y int, m time.Month) time.Time, ref time.Time) Period {
	d := DateOf(ref)
	y, m, _ := d.Date()
	start := anchor(y, m)
	for d.Before(start) {
		y, m, _ = time.Date(y, m-1, 1, 0, 0, 0, 0, time.UTC).Date()
		start = anchor(y, m)
	}
	// The next anchor is derived from the month the current one was
	// computed in, not the month it landed in after the offset.
	ny, nm, _ := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC).Date()
	return Period{Start: start, End: anchor(ny, nm)}
}

func daysInMonth(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// boundaryStrategies maps cycle types to their calculators.
var boundaryStrategies = map[CycleType]BoundaryCalculator{
	Calendar:    calendarCalculator{},
	LastWeekday: lastWeekdayCalculator{},
	CustomDay:   customDayCalculator{},
	BiWeekly:    biWeeklyCalculator{},
}

// GetBoundaryCalculator returns the calculator for a cycle type.
func GetBoundaryCalculator(t CycleType) (BoundaryCalculator, error) {
	c, ok := boundaryStrategies[t]
	if !ok {
		return nil, fmt.Errorf("no boundary calculator for cycle type %q", string(t))
	}
	return c, nil
}

// PeriodFor returns the financial period containing ref under the given
// settings. The settings are validated first so callers can pass candidates
// straight through.
func PeriodFor(s Settings, ref time.Time) (Period, error) {
	norm, err := s.Validate()
	if err != nil {
		return Period{}, err
	}
	calc, err := GetBoundaryCalculator(norm.CycleType)
	if err != nil {
		return Period{}, err
	}
	return calc.PeriodFor(norm, ref), nil
}

// PeriodsInRange returns the consecutive periods overlapping [from, to],
// oldest first. Used to bucket transactions for analytics.
func PeriodsInRange(s Settings, from, to time.Time) ([]Period, error) {
	if DateOf(to).Before(DateOf(from)) {
		return nil, fmt.Errorf("invalid range: %s after %s",
			DateOf(from).Format("2006-01-02"), DateOf(to).Format("2006-01-02"))
	}
	p, err := PeriodFor(s, from)
	if err != nil {
		return nil, err
	}
	end := DateOf(to)
	var out []Period
	for {
		out = append(out, p)
		if p.End.After(end) {
			return out, nil
		}
		next, err := PeriodFor(s, p.End)
		if err != nil {
			return nil, err
		}
		if !next.Start.Equal(p.End) {
			// Boundary drift would loop forever; bail out instead.
			return nil, fmt.Errorf("non-contiguous periods at %s", p.End.Format("2006-01-02"))
		}
		p = next
	}
}
