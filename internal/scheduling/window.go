package scheduling

import "time"

// normalizeWindow puts every stored instant on UTC and truncates recurrence
// bounds to whole dates. All interval math downstream assumes this.
func normalizeWindow(w *AvailabilityWindow) {
	w.StartAt = w.StartAt.UTC()
	w.EndAt = w.EndAt.UTC()
	if w.RecurrenceStart != nil {
		d := dateOf(w.RecurrenceStart.UTC())
		w.RecurrenceStart = &d
	}
	if w.RecurrenceEnd != nil {
		d := dateOf(w.RecurrenceEnd.UTC())
		w.RecurrenceEnd = &d
	}
}

func validateWindow(w *AvailabilityWindow) error {
	switch w.Kind {
	case KindSpecific, KindBlocked:
		if w.StartAt.IsZero() || w.EndAt.IsZero() {
			return newValidationError("bounds", "start_at and end_at are required")
		}
		if !w.EndAt.After(w.StartAt) {
			return newValidationError("bounds", "end_at must be after start_at")
		}
	case KindRecurring:
		if w.DaysOfWeek.IsEmpty() {
			return newValidationError("days_of_week", "at least one weekday must be flagged")
		}
		if w.RecurrenceStart == nil || w.RecurrenceEnd == nil {
			return newValidationError("recurrence", "recurrence_start and recurrence_end are required")
		}
		if w.RecurrenceEnd.Before(*w.RecurrenceStart) {
			return newValidationError("recurrence", "recurrence_end must not precede recurrence_start")
		}
		if minuteOfDay(w.EndAt) <= minuteOfDay(w.StartAt) {
			return newValidationError("bounds", "daily end must be after daily start within the same day")
		}
	default:
		return newValidationError("kind", "must be one of specific, recurring, blocked")
	}
	return nil
}

// windowCovers reports whether the window's effective interval contains the
// instant. Bounds are inclusive at both ends.
func windowCovers(w AvailabilityWindow, t time.Time) bool {
	t = t.UTC()
	switch w.Kind {
	case KindSpecific, KindBlocked:
		return !t.Before(w.StartAt) && !t.After(w.EndAt)
	case KindRecurring:
		if w.RecurrenceStart == nil || w.RecurrenceEnd == nil {
			return false
		}
		day := dateOf(t)
		if day.Before(*w.RecurrenceStart) || day.After(*w.RecurrenceEnd) {
			return false
		}
		if !w.DaysOfWeek.Has(t.Weekday()) {
			return false
		}
		m := minuteOfDay(t)
		return m >= minuteOfDay(w.StartAt) && m <= minuteOfDay(w.EndAt)
	default:
		return false
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func minuteOfDay(t time.Time) int {
	return t.UTC().Hour()*60 + t.UTC().Minute()
}
