package core

import (
	"fmt"
	"strconv"
)

// OrdinalSuffix returns the English ordinal suffix for a day of the month:
// 11-13 take "th"; otherwise the last digit decides (1 "st", 2 "nd", 3 "rd").
func OrdinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// DescribePeriod renders the human-readable preview sentence for a valid
// configuration. Calendar needs no explanation and yields the empty string,
// as does any configuration that would not pass Validate.
func DescribePeriod(s Settings) string {
	switch s.CycleType {
	case Calendar:
		return ""
	case LastWeekday:
		return "Your financial period will start on the last weekday of each month."
	case CustomDay:
		if s.PayDay == nil {
			return ""
		}
		day := *s.PayDay
		anchor := strconv.Itoa(day) + OrdinalSuffix(day)
		if s.CycleStartOffset == 0 {
			return fmt.Sprintf("Your financial period will start on the %s of each month.", anchor)
		}
		return fmt.Sprintf("Your financial period will start on the %s + %d day(s) of each month.",
			anchor, s.CycleStartOffset)
	case BiWeekly:
		if s.PayDay == nil || *s.PayDay < 0 || *s.PayDay > 6 {
			return ""
		}
		name := WeekdayNames[*s.PayDay]
		if s.CycleStartOffset == 0 {
			return fmt.Sprintf("Your financial period will start on %s every 2 weeks.", name)
		}
		return fmt.Sprintf("Your financial period will start on %s + %d day(s) every 2 weeks.",
			name, s.CycleStartOffset)
	default:
		return ""
	}
}

// Summary renders the short "current pay cycle" line shown next to an
// active configuration.
func Summary(s Settings) string {
	switch s.CycleType {
	case Calendar:
		return "Calendar months"
	case LastWeekday:
		return "Last weekday of each month"
	case CustomDay:
		if s.PayDay == nil {
			return "Unknown"
		}
		day := *s.PayDay
		anchor := strconv.Itoa(day) + OrdinalSuffix(day)
		if s.CycleStartOffset > 0 {
			anchor = fmt.Sprintf("%s + %d day(s)", anchor, s.CycleStartOffset)
		}
		return fmt.Sprintf("Custom day: %s of each month", anchor)
	case BiWeekly:
		if s.PayDay == nil || *s.PayDay < 0 || *s.PayDay > 6 {
			return "Unknown"
		}
		anchor := WeekdayNames[*s.PayDay]
		if s.CycleStartOffset > 0 {
			anchor = fmt.Sprintf("%s + %d day(s)", anchor, s.CycleStartOffset)
		}
		return fmt.Sprintf("Bi-weekly: Every 2 weeks starting %s", anchor)
	default:
		return "Unknown"
	}
}
