package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateWindow_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: uuid.New(),
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestCreateWindow_RejectsInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateWindow_RevalidatesBounds(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}

	badEnd := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	_, err = f.svc.UpdateWindow(context.Background(), created.ID, WindowUpdate{EndAt: &badEnd})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for inverted bounds, got %v", err)
	}

	newEnd := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)
	updated, err := f.svc.UpdateWindow(context.Background(), created.ID, WindowUpdate{EndAt: &newEnd})
	if err != nil {
		t.Fatalf("update window: %v", err)
	}
	if !updated.EndAt.Equal(newEnd) {
		t.Errorf("end at %s, want %s", updated.EndAt, newEnd)
	}
}

func TestDeactivateWindow_StopsOffering(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}

	instant := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	offered, err := f.svc.IsOfferedAt(context.Background(), f.providerID, instant)
	if err != nil || !offered {
		t.Fatalf("expected offered before deactivation, got %v %v", offered, err)
	}

	if err := f.svc.DeactivateWindow(context.Background(), created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	offered, err = f.svc.IsOfferedAt(context.Background(), f.providerID, instant)
	if err != nil {
		t.Fatalf("is offered: %v", err)
	}
	if offered {
		t.Error("deactivated window must not resolve as offered")
	}
}

func TestDeactivateWindow_KeepsExistingAppointments(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}

	appt, err := f.svc.Book(context.Background(), BookingRequest{
		PatientID:   f.patientID,
		ProviderID:  f.providerID,
		ScheduledAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := f.svc.DeactivateWindow(context.Background(), created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := f.svc.GetAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("appointment must survive window deactivation, got %v", err)
	}
	if got.ID != appt.ID {
		t.Errorf("got appointment %s, want %s", got.ID, appt.ID)
	}
}

func TestPurgeWindow(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}

	if err := f.svc.PurgeWindow(context.Background(), created.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if err := f.svc.PurgeWindow(context.Background(), created.ID); !errors.Is(err, ErrWindowNotFound) {
		t.Errorf("expected ErrWindowNotFound on second purge, got %v", err)
	}
}

func TestReapDeactivatedWindows(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateWindow(context.Background(), AvailabilityWindow{
		ProviderID: f.providerID,
		Kind:       KindSpecific,
		StartAt:    time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create window: %v", err)
	}
	if err := f.svc.DeactivateWindow(context.Background(), created.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// Retention has not elapsed yet, nothing to purge.
	n, err := f.svc.ReapDeactivatedWindows(context.Background())
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if n != 0 {
		t.Errorf("purged %d windows inside retention, want 0", n)
	}
}
