package core

// CycleType identifies one of the supported pay-cycle schemes.
type CycleType string

const (
	Calendar    CycleType = "calendar"
	LastWeekday CycleType = "last_weekday"
	CustomDay   CycleType = "custom_day"
	BiWeekly    CycleType = "bi_weekly"
)

// PayDayRange bounds the valid pay_day values for a cycle type.
type PayDayRange struct {
	Min int
	Max int
}

// Contains reports whether day falls within the range, inclusive.
func (r PayDayRange) Contains(day int) bool {
	return day >= r.Min && day <= r.Max
}

// TypeDescriptor describes one entry of the pay-cycle catalog.
type TypeDescriptor struct {
	Value          CycleType
	Label          string
	Description    string
	RequiresPayDay bool
	// PayDayRange is nil when the type takes no pay day.
	PayDayRange *PayDayRange
	// PayDayOptions holds the weekday labels for bi_weekly, Sunday first.
	PayDayOptions []string
}

// WeekdayNames is the Sunday-first name table used to resolve a bi-weekly
// pay_day into a display name.
var WeekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// cycleCatalog is the fixed catalog of supported cycle types. The order is
// stable and part of the contract: clients render the options in this order.
var cycleCatalog = []TypeDescriptor{
	{
		Value:       Calendar,
		Label:       "Calendar Month",
		Description: "Standard calendar months (Jan 1-31, Feb 1-28, etc.)",
	},
	{
		Value:       LastWeekday,
		Label:       "Last Weekday of Month",
		Description: "Last working day (Mon-Fri) of each month",
	},
	{
		Value:          CustomDay,
		Label:          "Specific Day of Month",
		Description:    "Set a specific day (e.g., 25th of every month)",
		RequiresPayDay: true,
		PayDayRange:    &PayDayRange{Min: 1, Max: 31},
	},
	{
		Value:          BiWeekly,
		Label:          "Bi-Weekly",
		Description:    "Every 2 weeks on a specific day",
		RequiresPayDay: true,
		PayDayRange:    &PayDayRange{Min: 0, Max: 6},
		PayDayOptions:  WeekdayNames[:],
	},
}

// ListTypes returns the catalog in its fixed display order. The returned
// slice is a copy; callers may not mutate the catalog.
func ListTypes() []TypeDescriptor {
	out := make([]TypeDescriptor, len(cycleCatalog))
	copy(out, cycleCatalog)
	return out
}

// LookupType resolves a cycle type to its descriptor.
func LookupType(t CycleType) (TypeDescriptor, bool) {
	for _, d := range cycleCatalog {
		if d.Value == t {
			return d, true
		}
	}
	return TypeDescriptor{}, false
}

// OffsetOption is one of the documented cycle-start offsets.
type OffsetOption struct {
	Value       int
	Label       string
	Description string
}

// DefaultOffset is the recommended cycle-start offset (period starts the
// day after payday).
const DefaultOffset = 1

// OffsetOptions lists the offsets with documented descriptions. Larger
// non-negative offsets are accepted by validation but carry no text.
var OffsetOptions = []OffsetOption{
	{Value: 0, Label: "Same day as payday", Description: "Period starts on payday"},
	{Value: 1, Label: "1 day after payday", Description: "Period starts next day (Recommended)"},
	{Value: 2, Label: "2 days after payday", Description: "Period starts 2 days after"},
}
