package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// conflictsWith reports whether any existing appointment occupies a slot
// overlapping the candidate instant. Two instants conflict when they are
// strictly closer than one slot width, so back-to-back bookings exactly
// SlotDuration apart are allowed. An appointment matching exclude is skipped,
// which lets a reschedule ignore its own stale row.
func conflictsWith(existing []Appointment, candidate time.Time, exclude uuid.UUID) bool {
	for _, a := range existing {
		if a.ID == exclude {
			continue
		}
		d := a.ScheduledAt.Sub(candidate)
		if d < 0 {
			d = -d
		}
		if d < SlotDuration {
			return true
		}
	}
	return false
}

// conflictRange is the half-open window of instants that could conflict with
// the candidate; the repository query uses it to bound the row scan.
func conflictRange(candidate time.Time) (from, to time.Time) {
	return candidate.Add(-SlotDuration), candidate.Add(SlotDuration)
}
