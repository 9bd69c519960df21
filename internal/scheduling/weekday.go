package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet flags the weekdays a recurring window applies on.
type WeekdaySet uint8

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekdaySet converts a name→flag map into a WeekdaySet. Unknown weekday
// names are an error, never ignored.
func ParseWeekdaySet(days map[string]bool) (WeekdaySet, error) {
	var set WeekdaySet
	for name, on := range days {
		d, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return 0, newValidationError("days_of_week", fmt.Sprintf("unknown weekday %q", name))
		}
		if on {
			set |= 1 << uint(d)
		}
	}
	return set, nil
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Names returns the canonical map form used in the persisted JSON column.
func (s WeekdaySet) Names() map[string]bool {
	out := make(map[string]bool, 7)
	for name, d := range weekdayNames {
		out[name] = s.Has(d)
	}
	return out
}
