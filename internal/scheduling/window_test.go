package scheduling

import (
	"errors"
	"testing"
	"time"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func clock(h, m int) time.Time {
	return time.Date(2000, time.January, 1, h, m, 0, 0, time.UTC)
}

func TestParseWeekdaySet_UnknownName(t *testing.T) {
	_, err := ParseWeekdaySet(map[string]bool{"monday": true, "lunes": true})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for unknown weekday, got %v", err)
	}
}

func TestParseWeekdaySet_Flags(t *testing.T) {
	set, err := ParseWeekdaySet(map[string]bool{
		"Monday":   true,
		"friday":   true,
		"saturday": false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Has(time.Monday) || !set.Has(time.Friday) {
		t.Error("expected monday and friday flagged")
	}
	if set.Has(time.Saturday) || set.Has(time.Sunday) {
		t.Error("expected saturday and sunday unflagged")
	}
}

func TestValidateWindow(t *testing.T) {
	mondays, _ := ParseWeekdaySet(map[string]bool{"monday": true})

	tests := []struct {
		name    string
		window  AvailabilityWindow
		wantErr bool
	}{
		{
			name: "valid specific",
			window: AvailabilityWindow{
				Kind:    KindSpecific,
				StartAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "specific end before start",
			window: AvailabilityWindow{
				Kind:    KindSpecific,
				StartAt: time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
			},
			wantErr: true,
		},
		{
			name: "blocked equal bounds",
			window: AvailabilityWindow{
				Kind:    KindBlocked,
				StartAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
				EndAt:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
			},
			wantErr: true,
		},
		{
			name: "valid recurring",
			window: AvailabilityWindow{
				Kind:            KindRecurring,
				StartAt:         clock(9, 0),
				EndAt:           clock(17, 0),
				DaysOfWeek:      mondays,
				RecurrenceStart: datePtr(2024, 1, 1),
				RecurrenceEnd:   datePtr(2024, 12, 31),
			},
		},
		{
			name: "recurring without weekdays",
			window: AvailabilityWindow{
				Kind:            KindRecurring,
				StartAt:         clock(9, 0),
				EndAt:           clock(17, 0),
				RecurrenceStart: datePtr(2024, 1, 1),
				RecurrenceEnd:   datePtr(2024, 12, 31),
			},
			wantErr: true,
		},
		{
			name: "recurring without recurrence bounds",
			window: AvailabilityWindow{
				Kind:       KindRecurring,
				StartAt:    clock(9, 0),
				EndAt:      clock(17, 0),
				DaysOfWeek: mondays,
			},
			wantErr: true,
		},
		{
			name: "recurring daily end before start",
			window: AvailabilityWindow{
				Kind:            KindRecurring,
				StartAt:         clock(17, 0),
				EndAt:           clock(9, 0),
				DaysOfWeek:      mondays,
				RecurrenceStart: datePtr(2024, 1, 1),
				RecurrenceEnd:   datePtr(2024, 12, 31),
			},
			wantErr: true,
		},
		{
			name: "unknown kind",
			window: AvailabilityWindow{
				Kind:    WindowKind("weekly"),
				StartAt: clock(9, 0),
				EndAt:   clock(17, 0),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWindow(&tt.window)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWindowCovers_SpecificInclusiveBounds(t *testing.T) {
	w := AvailabilityWindow{
		Kind:    KindSpecific,
		StartAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	}

	if !windowCovers(w, w.StartAt) {
		t.Error("start bound should be covered")
	}
	if !windowCovers(w, w.EndAt) {
		t.Error("end bound should be covered")
	}
	if windowCovers(w, w.EndAt.Add(time.Second)) {
		t.Error("instant past end should not be covered")
	}
}

func TestWindowCovers_NormalizesToUTC(t *testing.T) {
	w := AvailabilityWindow{
		Kind:    KindSpecific,
		StartAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	}

	// 05:00 in UTC-5 is 10:00 UTC, inside the window.
	est := time.FixedZone("EST", -5*3600)
	if !windowCovers(w, time.Date(2024, 3, 4, 5, 0, 0, 0, est)) {
		t.Error("equivalent non-UTC instant should be covered")
	}
}
