package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	ProviderExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	PaymentExists(ctx context.Context, id uuid.UUID) (bool, error)

	// Availability windows
	CreateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	GetWindowByID(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	UpdateWindow(ctx context.Context, w *AvailabilityWindow) (*AvailabilityWindow, error)
	DeactivateWindow(ctx context.Context, id uuid.UUID) error
	DeleteWindow(ctx context.Context, id uuid.UUID) error
	ListActiveWindows(ctx context.Context, providerID uuid.UUID) ([]AvailabilityWindow, error)
	DeleteWindowsDeactivatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Appointments
	InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointmentsBetween(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Appointment, error)
	NextAppointmentForPatient(ctx context.Context, patientID uuid.UUID, after time.Time) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
