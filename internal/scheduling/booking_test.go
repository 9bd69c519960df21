package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBook_Success(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)

	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID:   f.patientID,
		ProviderID:  f.providerID,
		ScheduledAt: instant,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !appt.ScheduledAt.Equal(instant) {
		t.Errorf("scheduled at %s, want %s", appt.ScheduledAt, instant)
	}
	if appt.DurationMinutes != 30 {
		t.Errorf("duration %d, want 30", appt.DurationMinutes)
	}

	events := f.repo.Events()
	if len(events) != 1 || events[0].EventType != EventAppointmentBooked {
		t.Errorf("expected one booked event, got %+v", events)
	}
}

func TestBook_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID:   uuid.New(),
		ProviderID:  f.providerID,
		ScheduledAt: instant,
	})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	_, err = f.svc.Book(context.Background(), BookingRequest{
		PatientID:   f.patientID,
		ProviderID:  uuid.New(),
		ScheduledAt: instant,
	})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}

	missingPayment := uuid.New()
	_, err = f.svc.Book(context.Background(), BookingRequest{
		PatientID:   f.patientID,
		ProviderID:  f.providerID,
		ScheduledAt: instant,
		PaymentRef:  &missingPayment,
	})
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestBook_NotOffered(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)

	// 18:00 is outside the daily 09:00-17:00 bounds.
	_, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID:   f.patientID,
		ProviderID:  f.providerID,
		ScheduledAt: time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrNotOffered) {
		t.Errorf("expected ErrNotOffered, got %v", err)
	}
}

func TestBook_SlotTakenWithinGuardMargin(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant.Add(29 * time.Minute),
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken 29 minutes apart, got %v", err)
	}
}

func TestBook_BackToBackAllowed(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant.Add(SlotDuration),
	}); err != nil {
		t.Errorf("back-to-back booking should succeed, got %v", err)
	}
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), BookingRequest{
				PatientID:   f.patientID,
				ProviderID:  f.providerID,
				ScheduledAt: instant,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, taken int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotTaken):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != 1 {
		t.Errorf("%d bookings succeeded, want exactly 1", succeeded)
	}
	if taken != attempts-1 {
		t.Errorf("%d rejected as taken, want %d", taken, attempts-1)
	}
}

func TestBook_CancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	}); err != nil {
		t.Errorf("slot should be free after cancellation, got %v", err)
	}
}

func TestReschedule_SelfExclusion(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// 10 minutes away is within the guard margin of the old row; only the
	// self-exclusion makes this legal.
	newInstant := instant.Add(10 * time.Minute)
	updated, err := f.svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{ScheduledAt: &newInstant})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !updated.ScheduledAt.Equal(newInstant) {
		t.Errorf("scheduled at %s, want %s", updated.ScheduledAt, newInstant)
	}
}

func TestReschedule_ConflictWithOther(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	first := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: first,
	}); err != nil {
		t.Fatalf("book first: %v", err)
	}
	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: second,
	})
	if err != nil {
		t.Fatalf("book second: %v", err)
	}

	clash := first.Add(15 * time.Minute)
	_, err = f.svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{ScheduledAt: &clash})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestReschedule_MetadataOnly(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	link := "https://calls.example.com/room-1"
	updated, err := f.svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{CallLink: &link})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.CallLink == nil || *updated.CallLink != link {
		t.Errorf("call link not updated: %+v", updated.CallLink)
	}
	if !updated.ScheduledAt.Equal(instant) {
		t.Errorf("instant should be unchanged, got %s", updated.ScheduledAt)
	}
}

func TestHasConflict(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)
	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: instant,
	}); err != nil {
		t.Fatalf("book: %v", err)
	}

	conflict, err := f.svc.HasConflict(context.Background(), f.providerID, instant.Add(15*time.Minute))
	if err != nil {
		t.Fatalf("has conflict: %v", err)
	}
	if !conflict {
		t.Error("instant inside the guard margin should report a conflict")
	}

	conflict, err = f.svc.HasConflict(context.Background(), f.providerID, instant.Add(SlotDuration))
	if err != nil {
		t.Fatalf("has conflict: %v", err)
	}
	if conflict {
		t.Error("back-to-back instant should not report a conflict")
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)

	// Take the 10:00 slot; sampling 09:00-12:00 should then skip only 10:00
	// itself, since 09:30 and 10:30 are exactly back-to-back.
	booked := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	if _, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID: f.patientID, ProviderID: f.providerID, ScheduledAt: booked,
	}); err != nil {
		t.Fatalf("book: %v", err)
	}

	from := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	slots, err := f.svc.AvailableSlots(context.Background(), f.providerID, from, to)
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}

	want := []time.Time{
		time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 11, 30, 0, 0, time.UTC),
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots %v, want %d", len(slots), slots, len(want))
	}
	for i := range want {
		if !slots[i].Equal(want[i]) {
			t.Errorf("slot[%d] = %s, want %s", i, slots[i], want[i])
		}
	}
}

func TestAvailableSlots_RangeValidation(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.AvailableSlots(context.Background(), f.providerID, from, from)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for empty range, got %v", err)
	}

	_, err = f.svc.AvailableSlots(context.Background(), f.providerID, from, from.AddDate(0, 2, 0))
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for oversized range, got %v", err)
	}
}

func TestNextAppointmentForPatient(t *testing.T) {
	f := newFixture(t)
	f.addAllWeekWindow(t)

	_, err := f.svc.NextAppointmentForPatient(context.Background(), f.patientID)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound with no bookings, got %v", err)
	}
}
