package scheduling

import "time"

// offeredAt resolves whether the instant is bookable given the provider's
// active windows. A covering blocked window wins over any match; otherwise any
// covering specific or recurring window suffices (overlaps are a union).
func offeredAt(windows []AvailabilityWindow, t time.Time) bool {
	for _, w := range windows {
		if w.Kind == KindBlocked && windowCovers(w, t) {
			return false
		}
	}
	for _, w := range windows {
		if w.Kind == KindBlocked {
			continue
		}
		if windowCovers(w, t) {
			return true
		}
	}
	return false
}
